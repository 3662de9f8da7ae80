package editor

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
)

// ErrNotFound is returned for unknown editors and editors owned by someone else.
var ErrNotFound = errors.New("editor not found")

// Registry holds the open editors of all users.
type Registry struct {
	mu           sync.RWMutex
	editors      map[string]*Editor
	historyLimit int
	onChange     func(State)
}

func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		editors:      make(map[string]*Editor),
		historyLimit: historyLimit,
	}
}

// OnChange sets the hook passed to editors created afterwards.
func (r *Registry) OnChange(fn func(State)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Create opens a new editor for owner, optionally starting from initial.
func (r *Registry) Create(owner string, initial *core.Snapshot) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := New(uuid.NewString(), owner, Options{
		HistoryLimit: r.historyLimit,
		Initial:      initial,
		OnChange:     r.onChange,
	})
	if err != nil {
		return nil, err
	}
	r.editors[e.ID] = e

	logrus.WithFields(logrus.Fields{
		"editor_id":  e.ID,
		"user_id":    owner,
		"from_draft": initial != nil,
	}).Info("Editor opened")
	return e, nil
}

func (r *Registry) Get(owner, id string) (*Editor, error) {
	r.mu.RLock()
	e, ok := r.editors[id]
	r.mu.RUnlock()

	if !ok || e.Owner != owner {
		return nil, ErrNotFound
	}
	return e, nil
}

func (r *Registry) Delete(owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.editors[id]
	if !ok || e.Owner != owner {
		return ErrNotFound
	}
	delete(r.editors, id)

	logrus.WithFields(logrus.Fields{"editor_id": id, "user_id": owner}).Info("Editor closed")
	return nil
}

// List returns the states of owner's editors, oldest first.
func (r *Registry) List(owner string) []State {
	r.mu.RLock()
	owned := make([]*Editor, 0)
	for _, e := range r.editors {
		if e.Owner == owner {
			owned = append(owned, e)
		}
	}
	r.mu.RUnlock()

	states := make([]State, 0, len(owned))
	for _, e := range owned {
		states = append(states, e.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].ID < states[j].ID
		}
		return states[i].CreatedAt.Before(states[j].CreatedAt)
	})
	return states
}
