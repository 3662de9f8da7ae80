// Package persist bridges an editor to the pattern records service.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pattern-studio/core"
)

// ErrEmptySnapshot is returned when there is no image to save.
var ErrEmptySnapshot = errors.New("snapshot is empty")

// Resetter restores an editor to its blank state after a successful save.
type Resetter interface {
	Reset() error
}

type Adapter struct {
	store core.PatternStore
}

func NewAdapter(store core.PatternStore) *Adapter {
	return &Adapter{store: store}
}

// SaveAsNew creates a pattern record from the metadata and the canvas
// snapshot. Only a successful create resets the editor; on failure nothing
// local is touched and the error is returned as is.
func (a *Adapter) SaveAsNew(ctx context.Context, meta core.PatternMetadata, snap core.Snapshot, resetter Resetter) (*core.PatternRecord, error) {
	if snap.IsZero() {
		return nil, ErrEmptySnapshot
	}

	record := core.NewPatternRecord(meta, snap.DataURL())
	record.IsAIGenerated = false

	created, err := a.store.Create(ctx, record)
	if err != nil {
		logrus.WithError(err).WithField("pattern_name", meta.Name).Error("Failed to save pattern")
		return nil, err
	}

	log := logrus.WithField("pattern_id", created.ID)
	log.Info("Pattern saved successfully")

	if resetter != nil {
		if err := resetter.Reset(); err != nil {
			log.WithError(err).Error("Failed to reset editor after save")
			return created, fmt.Errorf("resetting editor: %w", err)
		}
	}
	return created, nil
}

// SaveEdits updates an existing record. The image is only re-encoded when a
// snapshot is supplied.
func (a *Adapter) SaveEdits(ctx context.Context, id string, meta core.PatternMetadata, snap *core.Snapshot) (*core.PatternRecord, error) {
	update := core.UpdateFromMetadata(meta)
	if snap != nil {
		if snap.IsZero() {
			return nil, ErrEmptySnapshot
		}
		dataURL := snap.DataURL()
		update.ImageData = &dataURL
	}

	log := logrus.WithFields(logrus.Fields{"pattern_id": id, "with_image": snap != nil})
	updated, err := a.store.Update(ctx, id, update)
	if err != nil {
		log.WithError(err).Error("Failed to update pattern")
		return nil, err
	}
	log.Info("Pattern updated successfully")
	return updated, nil
}
