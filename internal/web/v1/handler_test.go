package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duynhne/user-admin/internal/core/domain"
	"github.com/duynhne/user-admin/internal/core/repository/rest"
	logicv1 "github.com/duynhne/user-admin/internal/logic/v1"
	"github.com/duynhne/user-admin/middleware"
)

const upstreamUsers = `[
  {"id": 1, "name": "Leanne Graham", "username": "Bret", "email": "Sincere@april.biz",
   "address": {"street": "Kulas Light", "suite": "Apt. 556", "city": "Gwenborough", "zipcode": "92998-3874",
     "geo": {"lat": "-37.3159", "lng": "81.1496"}}, "phone": "1-770-736-8031",
   "website": "hildegard.org", "company": {"name": "Romaguera-Crona", "catchPhrase": "Multi-layered client-server neural-net"}},
  {"id": 2, "name": "Ervin Howell", "username": "Antonette", "email": "Shanna@melissa.tv",
   "address": {"street": "Victor Plains", "city": "Wisokyburgh"}, "phone": "010-692-6593",
   "website": "anastasia.net", "company": {"name": "Deckow-Crist"}}
]`

// fakeUsersAPI mimics the upstream: it serves a fixed list, echoes writes
// and does not persist anything.
type fakeUsersAPI struct {
	mu    sync.Mutex
	calls []string
	down  bool
}

func (f *fakeUsersAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	down := f.down
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/users":
		_, _ = io.WriteString(w, upstreamUsers)
	case r.Method == http.MethodGet && r.URL.Path == "/users/1":
		var users []json.RawMessage
		_ = json.Unmarshal([]byte(upstreamUsers), &users)
		_, _ = w.Write(users[0])
	case r.Method == http.MethodPost && r.URL.Path == "/users":
		var rec map[string]any
		_ = json.Unmarshal(body, &rec)
		rec["id"] = 11
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/users/"):
		_, _ = w.Write(body)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/users/"):
		_, _ = io.WriteString(w, "{}")
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "{}")
	}
}

func (f *fakeUsersAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeUsersAPI) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeUsersAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	repo := rest.NewUserRepository(srv.URL+"/users", srv.Client())
	handler := NewUserHandler(logicv1.NewUserService(repo))

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r, api
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type userJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Address  struct {
		City string `json:"city"`
	} `json:"address"`
}

const validBody = `{"name":"Jane Doe","email":"jane@example.com","phone":"555-0100",
  "address":{"street":"Main St","city":"Springfield"},"company":{"name":""},"website":""}`

func TestListUsers(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	users := decode[[]userJSON](t, w)
	require.Len(t, users, 2)
	assert.Equal(t, "Bret", users[0].Username)
	assert.Equal(t, "Wisokyburgh", users[1].Address.City)
}

func TestGetUser(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/v1/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Leanne Graham", decode[userJSON](t, w).Name)

	w = do(r, http.MethodGet, "/api/v1/users/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUser(t *testing.T) {
	r, api := newTestRouter(t)

	// load the roster first so the created user shows up in the list
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users", "").Code)

	w := do(r, http.MethodPost, "/api/v1/users", validBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[userJSON](t, w)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, "USER-jane-doe", created.Username)
	assert.True(t, api.called("POST /users"))

	users := decode[[]userJSON](t, do(r, http.MethodGet, "/api/v1/users", ""))
	require.Len(t, users, 3)
	assert.Equal(t, "Jane Doe", users[2].Name)
}

func TestCreateUser_ValidationFailure(t *testing.T) {
	r, api := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/users", `{"name":"Al","company":{"name":"Ab"},"website":"not a url"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decode[struct {
		Error  string `json:"error"`
		Fields map[string]struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"fields"`
	}](t, w)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Equal(t, "REQUIRED_OR_TOO_SHORT", resp.Fields["name"].Code)
	assert.Equal(t, "TOO_SHORT", resp.Fields["company"].Code)
	assert.Equal(t, "INVALID_URL", resp.Fields["website"].Code)
	assert.NotContains(t, resp.Fields, "username")

	assert.False(t, api.called("POST /users"))
}

func TestCreateUser_ValidationFailureLogsFieldMessages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	api := &fakeUsersAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware(zap.New(core)))
	NewUserHandler(logicv1.NewUserService(rest.NewUserRepository(srv.URL+"/users", srv.Client()))).
		RegisterRoutes(r.Group("/api/v1"))

	w := do(r, http.MethodPost, "/api/v1/users", `{"name":"Al"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	entries := logs.FilterMessage("Failed to create user").All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]string{"name": "Name is required and must be at least 3 characters"},
		entries[0].ContextMap()["fields"])
}

func TestCreateUser_BadBody(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Malformed JSON body", decode[map[string]string](t, w)["error"])

	w = do(r, http.MethodPost, "/api/v1/users", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body is required", decode[map[string]string](t, w)["error"])

	w = do(r, http.MethodPost, "/api/v1/users", `{"name": 42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `Field "name" has the wrong type`, decode[map[string]string](t, w)["error"])
}

func TestUpdateUser_KeepsUsername(t *testing.T) {
	r, api := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users", "").Code)

	w := do(r, http.MethodPut, "/api/v1/users/2", `{"name":"Ervin H","username":"hijack",
	  "address":{"street":"Victor Plains","city":"Wisokyburgh"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[userJSON](t, w)
	assert.Equal(t, 2, updated.ID)
	assert.Equal(t, "Antonette", updated.Username)
	assert.True(t, api.called("PUT /users/2"))

	users := decode[[]userJSON](t, do(r, http.MethodGet, "/api/v1/users", ""))
	assert.Equal(t, "Ervin H", users[1].Name)
}

func TestUpdateUser_CarriesUpstreamFields(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users", "").Code)

	w := do(r, http.MethodPut, "/api/v1/users/1", `{"name":"Leanne G","email":"Sincere@april.biz",
	  "address":{"street":"Kulas Light","city":"Gwenborough"},"company":{"name":"Romaguera-Crona"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[domain.UserRecord](t, w)
	assert.Equal(t, "Leanne G", updated.Name)
	assert.Equal(t, "Bret", updated.Username)
	assert.Equal(t, "Apt. 556", updated.Address.Suite)
	assert.Equal(t, "92998-3874", updated.Address.Zipcode)
	assert.Equal(t, domain.Geo{Lat: "-37.3159", Lng: "81.1496"}, updated.Address.Geo)
	assert.Equal(t, "Multi-layered client-server neural-net", updated.Company.CatchPhrase)
}

func TestDeleteUser(t *testing.T) {
	r, api := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users", "").Code)

	w := do(r, http.MethodDelete, "/api/v1/users/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, api.called("DELETE /users/1"))

	users := decode[[]userJSON](t, do(r, http.MethodGet, "/api/v1/users", ""))
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].ID)
}

func TestUpstreamDown(t *testing.T) {
	r, api := newTestRouter(t)
	api.mu.Lock()
	api.down = true
	api.mu.Unlock()

	w := do(r, http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Upstream unavailable", decode[map[string]string](t, w)["error"])
}

func TestValidateUser(t *testing.T) {
	r, api := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/forms/users/validate", `{"name":"Jane Doe","website":"https://example.com/path?q=1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Valid  bool           `json:"valid"`
		Record userJSON       `json:"record"`
		Errors map[string]any `json:"errors"`
	}](t, w)
	assert.True(t, resp.Valid)
	assert.Equal(t, "USER-jane-doe", resp.Record.Username)
	assert.Empty(t, resp.Errors)

	w = do(r, http.MethodPost, "/api/v1/forms/users/validate", `{"name":"Al","website":"not a url"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Errors = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "name")
	assert.Contains(t, resp.Errors, "website")

	api.mu.Lock()
	assert.Empty(t, api.calls)
	api.mu.Unlock()
}

func TestValidateUser_EditSeedsFromExistingRecord(t *testing.T) {
	r, api := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/forms/users/validate", `{"id":1,"name":"Leanne G","username":"ab"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Valid  bool              `json:"valid"`
		Record domain.UserRecord `json:"record"`
	}](t, w)
	assert.True(t, resp.Valid)
	assert.Equal(t, "Bret", resp.Record.Username)
	assert.Equal(t, "Apt. 556", resp.Record.Address.Suite)
	assert.True(t, api.called("GET /users/1"))

	w = do(r, http.MethodPost, "/api/v1/forms/users/validate", `{"id":999,"name":"Someone"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeriveUsername(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/v1/forms/users/username?name=Jane+Doe", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "USER-jane-doe", decode[map[string]string](t, w)["username"])
}
