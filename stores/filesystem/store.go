package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pattern-studio/core"
)

type fsStore struct {
	basePath string
}

// NewStore creates a filesystem-based store rooted at basePath. Each user
// gets a directory holding one JSON file per draft.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

// draftPath resolves the file of a draft and makes sure it stays inside the
// user's directory.
func (s *fsStore) draftPath(userID, id string) (string, error) {
	if err := core.ValidateKey(userID); err != nil {
		return "", err
	}
	if err := core.ValidateKey(id); err != nil {
		return "", err
	}

	absUserPath, err := filepath.Abs(s.userPath(userID))
	if err != nil {
		return "", err
	}
	absFilePath, err := filepath.Abs(filepath.Join(absUserPath, id+".json"))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFilePath, absUserPath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: access denied", core.ErrInvalidKey)
	}
	return absFilePath, nil
}

func (s *fsStore) userPath(userID string) string {
	return filepath.Join(s.basePath, userID)
}

func (s *fsStore) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	if err := core.ValidateKey(userID); err != nil {
		return nil, err
	}
	userPath := s.userPath(userID)
	log := logrus.WithField("user_id", userID).WithField("path", userPath)

	files, err := os.ReadDir(userPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("User directory does not exist, returning empty list.")
			return []*core.Draft{}, nil
		}
		log.WithError(err).Error("Failed to read user directory")
		return nil, err
	}

	drafts := make([]*core.Draft, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		draft, err := readDraft(filepath.Join(userPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read draft file %s, skipping", file.Name())
			continue
		}
		// List view does not carry the canvas.
		draft.Data = nil
		drafts = append(drafts, draft)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})

	log.Infof("Listed %d drafts", len(drafts))
	return drafts, nil
}

func (s *fsStore) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	filePath, err := s.draftPath(userID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id, "path": filePath})

	draft, err := readDraft(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Draft file not found")
			return nil, core.ErrDraftNotFound
		}
		log.WithError(err).Error("Failed to read draft file")
		return nil, err
	}

	log.Info("Draft retrieved successfully")
	return draft, nil
}

func (s *fsStore) Save(ctx context.Context, draft *core.Draft) error {
	filePath, err := s.draftPath(draft.UserID, draft.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": draft.UserID, "draft_id": draft.ID, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create user directory")
		return err
	}

	now := time.Now()
	if existing, err := readDraft(filePath); err == nil {
		draft.CreatedAt = existing.CreatedAt
	} else {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	data, err := json.Marshal(fileDraft{Draft: draft, UserID: draft.UserID})
	if err != nil {
		log.WithError(err).Error("Failed to marshal draft for saving")
		return err
	}

	// Replace atomically.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write draft file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to move draft file into place")
		return err
	}

	log.Info("Draft saved successfully")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, userID, id string) error {
	filePath, err := s.draftPath(userID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id, "path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Draft file not found for deletion")
			return core.ErrDraftNotFound
		}
		log.WithError(err).Error("Failed to delete draft file")
		return err
	}

	log.Info("Draft deleted successfully")
	return nil
}

// fileDraft is the on-disk form; Draft hides UserID from JSON.
type fileDraft struct {
	*core.Draft
	UserID string `json:"userId"`
}

func readDraft(filePath string) (*core.Draft, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	fd := fileDraft{Draft: &core.Draft{}}
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(filePath), err)
	}
	fd.Draft.UserID = fd.UserID
	return fd.Draft, nil
}
