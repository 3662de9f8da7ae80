package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	// ErrDraftNotFound is returned by draft stores when no draft matches.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrInvalidKey is returned for ids that could escape their user's namespace.
	ErrInvalidKey = errors.New("invalid key")
)

type (
	// Draft is a user-saved, unfinished pattern canvas.
	Draft struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"` // Not exposed in JSON responses, used internally.
		Name      string    `json:"name"`
		Thumbnail string    `json:"thumbnail,omitempty"`
		Data      []byte    `json:"data,omitempty"` // PNG canvas, not included in list views.
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// DraftStore defines the persistence layer for user-owned drafts.
	// All operations are scoped to a specific user.
	DraftStore interface {
		// List returns metadata for all drafts owned by a user.
		// The returned drafts do not carry the Data field.
		List(ctx context.Context, userID string) ([]*Draft, error)

		// Get returns a single draft by its ID, ensuring it belongs to the user.
		Get(ctx context.Context, userID, id string) (*Draft, error)

		// Save creates or updates a draft for a user.
		Save(ctx context.Context, draft *Draft) error

		// Delete removes a draft, ensuring it belongs to the user.
		Delete(ctx context.Context, userID, id string) error
	}
)

// Snapshot returns the draft canvas as a snapshot.
func (d *Draft) Snapshot() Snapshot {
	return NewSnapshot(d.Data)
}

// ValidateKey rejects user and draft ids that are empty, dot directories or
// paths, since stores use them as file names and object keys.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("%w: must not be empty or a dot directory", ErrInvalidKey)
	}
	if path.Base(key) != key || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: must not be a path", ErrInvalidKey)
	}
	return nil
}
