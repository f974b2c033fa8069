package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/duynhne/user-admin/internal/core/domain"
)

var upstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the users REST API in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "operation", "code"},
)

// maxErrorBody caps how much of an error response is copied into the error.
const maxErrorBody = 512

// UserRepository implements domain.UserRepository against a JSON REST API
// exposing /users and /users/{id}.
type UserRepository struct {
	usersURL   string
	httpClient *http.Client
}

// NewUserRepository creates a repository for the given collection URL
func NewUserRepository(usersURL string, httpClient *http.Client) *UserRepository {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &UserRepository{
		usersURL:   usersURL,
		httpClient: httpClient,
	}
}

// List retrieves every user
func (r *UserRepository) List(ctx context.Context) ([]domain.UserRecord, error) {
	var users []domain.UserRecord
	if err := r.do(ctx, "list", http.MethodGet, r.usersURL, nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.UserRecord{}
	}
	return users, nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int) (*domain.UserRecord, error) {
	var user domain.UserRecord
	if err := r.do(ctx, "get", http.MethodGet, r.userURL(id), nil, &user); err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// Create posts a new user and returns the record echoed back with its ID
func (r *UserRepository) Create(ctx context.Context, rec domain.UserRecord) (*domain.UserRecord, error) {
	rec.ID = 0
	var created domain.UserRecord
	if err := r.do(ctx, "create", http.MethodPost, r.usersURL, rec, &created); err != nil {
		return nil, fmt.Errorf("create user %q: %w", rec.Username, err)
	}
	return &created, nil
}

// Update replaces the user stored under id
func (r *UserRepository) Update(ctx context.Context, id int, rec domain.UserRecord) (*domain.UserRecord, error) {
	rec.ID = id
	var updated domain.UserRecord
	if err := r.do(ctx, "update", http.MethodPut, r.userURL(id), rec, &updated); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	if updated.ID == 0 {
		updated.ID = id
	}
	return &updated, nil
}

// Delete removes the user stored under id
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	if err := r.do(ctx, "delete", http.MethodDelete, r.userURL(id), nil, nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (r *UserRepository) userURL(id int) string {
	return r.usersURL + "/" + strconv.Itoa(id)
}

// do sends one request. A nil body sends no payload, a nil out skips decoding.
func (r *UserRepository) do(ctx context.Context, op, method, url string, body, out any) error {
	start := time.Now()
	code := "error"
	defer func() {
		upstreamDuration.WithLabelValues(method, op, code).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request users API: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	code = strconv.Itoa(resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrUserNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("users API status %d - %s: %w", resp.StatusCode, bytes.TrimSpace(msg), domain.ErrUpstreamUnavailable)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
