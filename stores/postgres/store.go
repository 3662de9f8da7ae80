package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pattern-studio/core"
)

// draftRow is the drafts table.
type draftRow struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	UserID    string    `gorm:"type:varchar(255);primaryKey;index"`
	Name      string    `gorm:"type:text;not null;default:''"`
	Thumbnail string    `gorm:"type:text;not null;default:''"`
	Data      []byte    `gorm:"type:bytea"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

func (draftRow) TableName() string { return "drafts" }

func rowFromDraft(d *core.Draft) *draftRow {
	return &draftRow{
		ID:        d.ID,
		UserID:    d.UserID,
		Name:      d.Name,
		Thumbnail: d.Thumbnail,
		Data:      d.Data,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *draftRow) toDraft() *core.Draft {
	return &core.Draft{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Thumbnail: r.Thumbnail,
		Data:      r.Data,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type pgStore struct {
	db *gorm.DB
}

// NewStore connects to PostgreSQL and migrates the drafts table.
func NewStore(dsn string) (*pgStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStoreWithDB(db)
}

func newStoreWithDB(db *gorm.DB) (*pgStore, error) {
	if err := db.AutoMigrate(&draftRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *pgStore) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	var rows []*draftRow
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "name", "thumbnail", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	drafts := make([]*core.Draft, 0, len(rows))
	for _, row := range rows {
		drafts = append(drafts, row.toDraft())
	}

	logrus.WithField("user_id", userID).Infof("Listed %d drafts", len(drafts))
	return drafts, nil
}

func (s *pgStore) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	var row draftRow
	err := s.db.WithContext(ctx).First(&row, "user_id = ? AND id = ?", userID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Draft not found for user")
		return nil, core.ErrDraftNotFound
	}
	if err != nil {
		log.WithError(err).Error("Failed to retrieve draft")
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	log.Info("Draft retrieved successfully")
	return row.toDraft(), nil
}

// Save upserts the draft. CreatedAt of an existing row is kept.
func (s *pgStore) Save(ctx context.Context, draft *core.Draft) error {
	if err := core.ValidateKey(draft.ID); err != nil {
		return err
	}

	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	row := rowFromDraft(draft)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "thumbnail", "data", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		logrus.WithError(err).WithField("draft_id", draft.ID).Error("Failed to save draft")
		return fmt.Errorf("failed to save draft: %w", err)
	}

	var stored draftRow
	if err := s.db.WithContext(ctx).Select("created_at").
		First(&stored, "user_id = ? AND id = ?", draft.UserID, draft.ID).Error; err == nil {
		draft.CreatedAt = stored.CreatedAt
	}

	logrus.WithFields(logrus.Fields{"user_id": draft.UserID, "draft_id": draft.ID}).Info("Draft saved successfully")
	return nil
}

func (s *pgStore) Delete(ctx context.Context, userID, id string) error {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	result := s.db.WithContext(ctx).Delete(&draftRow{}, "user_id = ? AND id = ?", userID, id)
	if result.Error != nil {
		log.WithError(result.Error).Error("Failed to delete draft")
		return fmt.Errorf("failed to delete draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Warn("Draft not found for deletion")
		return core.ErrDraftNotFound
	}

	log.Info("Draft deleted successfully")
	return nil
}
