package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"pattern-studio/core"
)

const draftTableStmt = `
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	thumbnail TEXT NOT NULL DEFAULT '',
	data BLOB,
	created_at DATETIME,
	updated_at DATETIME,
	PRIMARY KEY (user_id, id)
);`

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the SQLite database at
// dataSourceName.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err = db.Exec(draftTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating drafts table: %w", err)
	}
	return &sqliteStore{db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, thumbnail, created_at, updated_at FROM drafts WHERE user_id = ? ORDER BY updated_at DESC, id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []*core.Draft{}
	for rows.Next() {
		draft := core.Draft{UserID: userID}
		if err := rows.Scan(&draft.ID, &draft.Name, &draft.Thumbnail, &draft.CreatedAt, &draft.UpdatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, &draft)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", userID).Infof("Listed %d drafts", len(drafts))
	return drafts, nil
}

func (s *sqliteStore) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	draft := core.Draft{ID: id, UserID: userID}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, thumbnail, data, created_at, updated_at FROM drafts WHERE user_id = ? AND id = ?",
		userID, id).Scan(&draft.Name, &draft.Thumbnail, &draft.Data, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Draft not found for user")
			return nil, core.ErrDraftNotFound
		}
		log.WithError(err).Error("Failed to retrieve draft")
		return nil, err
	}

	log.Info("Draft retrieved successfully")
	return &draft, nil
}

func (s *sqliteStore) Save(ctx context.Context, draft *core.Draft) error {
	if err := core.ValidateKey(draft.ID); err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": draft.UserID, "draft_id": draft.ID})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	now := time.Now().UTC()
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM drafts WHERE user_id = ? AND id = ?",
		draft.UserID, draft.ID).Scan(&createdAt)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE drafts SET name = ?, thumbnail = ?, data = ?, updated_at = ? WHERE user_id = ? AND id = ?",
			draft.Name, draft.Thumbnail, draft.Data, now, draft.UserID, draft.ID)
	case errors.Is(err, sql.ErrNoRows):
		createdAt = now
		_, err = tx.ExecContext(ctx,
			"INSERT INTO drafts (id, user_id, name, thumbnail, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			draft.ID, draft.UserID, draft.Name, draft.Thumbnail, draft.Data, now, now)
	}
	if err != nil {
		log.WithError(err).Error("Failed to save draft")
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	draft.CreatedAt = createdAt
	draft.UpdatedAt = now

	log.Info("Draft saved successfully")
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, userID, id string) error {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	res, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		log.WithError(err).Error("Failed to delete draft")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Warn("Draft not found for deletion")
		return core.ErrDraftNotFound
	}

	log.Info("Draft deleted successfully")
	return nil
}
