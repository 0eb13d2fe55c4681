package repository

import (
	"context"
	"errors"

	"assettracker/internal/model"

	"gorm.io/gorm"
)

type NotificationConfigRepository interface {
	// Get returns the stored config, creating the default row on first use.
	Get(ctx context.Context) (*model.NotificationConfig, error)
	Save(ctx context.Context, cfg *model.NotificationConfig) error
}

type notificationConfigRepo struct{ db *gorm.DB }

func NewNotificationConfigRepository(db *gorm.DB) NotificationConfigRepository {
	return &notificationConfigRepo{db: db}
}

func (r *notificationConfigRepo) Get(ctx context.Context) (*model.NotificationConfig, error) {
	var cfg model.NotificationConfig
	err := r.db.WithContext(ctx).Order("id").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = model.NotificationConfig{DirectoryGroup: model.DefaultDirectoryGroup}
		if err := r.db.WithContext(ctx).Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *notificationConfigRepo) Save(ctx context.Context, cfg *model.NotificationConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}
