package v1

import (
	"sync"

	"github.com/duynhne/user-admin/internal/core/domain"
)

// Roster is the locally observed user list. The upstream API does not keep
// writes, so after the first load the roster reflects this service's own
// creates, updates and deletes. Last write wins.
//
// Until the first successful load, mutations are dropped: the load that
// follows fetches the upstream state anyway.
type Roster struct {
	mu     sync.RWMutex
	loaded bool
	users  []domain.UserRecord
}

func NewRoster() *Roster {
	return &Roster{}
}

// Snapshot returns a copy of the list and whether it was ever loaded.
func (r *Roster) Snapshot() ([]domain.UserRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, false
	}
	out := make([]domain.UserRecord, len(r.users))
	copy(out, r.users)
	return out, true
}

// Load replaces the list with users fetched from upstream.
func (r *Roster) Load(users []domain.UserRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]domain.UserRecord(nil), users...)
	r.loaded = true
}

// Find returns the first user with id.
func (r *Roster) Find(id int) (domain.UserRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.UserRecord{}, false
}

func (r *Roster) Append(u domain.UserRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		r.users = append(r.users, u)
	}
}

// Replace swaps every entry carrying u.ID for u.
func (r *Roster) Replace(u domain.UserRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = u
		}
	}
}

func (r *Roster) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.users[:0]
	for _, u := range r.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	r.users = kept
}
