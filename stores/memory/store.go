package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pattern-studio/core"
)

// memStore implements DraftStore in process memory.
type memStore struct {
	mu sync.RWMutex
	// drafts maps userID to draftID to the draft itself.
	drafts map[string]map[string]*core.Draft
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{drafts: make(map[string]map[string]*core.Draft)}
}

// List returns metadata for all drafts owned by a user, newest first.
func (s *memStore) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userDrafts := s.drafts[userID]
	drafts := make([]*core.Draft, 0, len(userDrafts))
	for _, d := range userDrafts {
		// List view does not carry the canvas.
		drafts = append(drafts, &core.Draft{
			ID:        d.ID,
			UserID:    d.UserID,
			Name:      d.Name,
			Thumbnail: d.Thumbnail,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	sortNewestFirst(drafts)

	logrus.WithField("user_id", userID).Infof("Listed %d drafts", len(drafts))
	return drafts, nil
}

func (s *memStore) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	d, ok := s.drafts[userID][id]
	if !ok {
		log.Warn("Draft not found for user")
		return nil, core.ErrDraftNotFound
	}

	log.Info("Draft retrieved successfully")
	out := *d
	out.Data = append([]byte(nil), d.Data...)
	return &out, nil
}

func (s *memStore) Save(ctx context.Context, draft *core.Draft) error {
	if draft.UserID == "" {
		return fmt.Errorf("UserID cannot be empty")
	}
	if err := core.ValidateKey(draft.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userDrafts, ok := s.drafts[draft.UserID]
	if !ok {
		userDrafts = make(map[string]*core.Draft)
		s.drafts[draft.UserID] = userDrafts
	}

	now := time.Now()
	if existing, exists := userDrafts[draft.ID]; exists {
		draft.CreatedAt = existing.CreatedAt
	} else {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	stored := *draft
	stored.Data = append([]byte(nil), draft.Data...)
	userDrafts[draft.ID] = &stored

	logrus.WithFields(logrus.Fields{"user_id": draft.UserID, "draft_id": draft.ID}).Info("Draft saved successfully")
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	if _, ok := s.drafts[userID][id]; !ok {
		log.Warn("Draft not found for deletion")
		return core.ErrDraftNotFound
	}

	delete(s.drafts[userID], id)
	log.Info("Draft deleted successfully")
	return nil
}

func sortNewestFirst(drafts []*core.Draft) {
	sort.Slice(drafts, func(i, j int) bool {
		if drafts[i].UpdatedAt.Equal(drafts[j].UpdatedAt) {
			return drafts[i].ID < drafts[j].ID
		}
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
}
