package repository

import (
	"context"

	"oneradio/model"

	"gorm.io/gorm"
)

// PlayHistoryRepository persists PlayHistory rows, the EXPANSION audit trail
// of tracks that have left the "current" slot.
type PlayHistoryRepository interface {
	RecordPlay(ctx context.Context, rec model.PlayHistory) error
	Recent(ctx context.Context, limit, offset int) ([]model.PlayHistory, error)
}

type gormPlayHistoryRepository struct {
	db *gorm.DB
}

// NewGormPlayHistoryRepository builds a GORM-backed PlayHistoryRepository.
func NewGormPlayHistoryRepository(db *gorm.DB) PlayHistoryRepository {
	return &gormPlayHistoryRepository{db: db}
}

func (r *gormPlayHistoryRepository) RecordPlay(ctx context.Context, rec model.PlayHistory) error {
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *gormPlayHistoryRepository) Recent(ctx context.Context, limit, offset int) ([]model.PlayHistory, error) {
	var rows []model.PlayHistory
	err := r.db.WithContext(ctx).
		Order("ended_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
