package v1

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duynhne/user-admin/internal/core/domain"
)

func TestRoster_IgnoresWritesBeforeLoad(t *testing.T) {
	r := NewRoster()
	r.Append(leanne)

	_, ok := r.Snapshot()
	assert.False(t, ok)

	r.Load([]domain.UserRecord{ervin})
	users, ok := r.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, []domain.UserRecord{ervin}, users)
}

func TestRoster_LastWriteWins(t *testing.T) {
	r := NewRoster()
	r.Load([]domain.UserRecord{leanne, ervin})

	first := leanne
	first.Name = "First"
	second := leanne
	second.Name = "Second"
	r.Replace(first)
	r.Replace(second)

	got, ok := r.Find(1)
	assert.True(t, ok)
	assert.Equal(t, "Second", got.Name)

	r.Remove(2)
	_, ok = r.Find(2)
	assert.False(t, ok)
}

func TestRoster_SnapshotIsACopy(t *testing.T) {
	r := NewRoster()
	r.Load([]domain.UserRecord{leanne})

	users, _ := r.Snapshot()
	users[0].Name = "mutated"

	got, _ := r.Find(1)
	assert.Equal(t, "Leanne Graham", got.Name)
}

func TestRoster_ConcurrentAccess(t *testing.T) {
	r := NewRoster()
	r.Load(nil)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.Append(domain.UserRecord{ID: id})
			r.Snapshot()
			r.Find(id)
		}(i)
	}
	wg.Wait()

	users, _ := r.Snapshot()
	assert.Len(t, users, 20)
}
