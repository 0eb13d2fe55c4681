package service

import (
	"context"
	"strings"

	"assettracker/internal/dto"
	"assettracker/internal/model"
	"assettracker/internal/repository"
)

// ConfigurationService manages who receives low-stock notifications.
type ConfigurationService interface {
	GetNotificationConfig(ctx context.Context) (*dto.NotificationConfigResponse, error)
	UpdateNotificationConfig(ctx context.Context, req dto.UpdateNotificationConfigRequest) (*dto.NotificationConfigResponse, error)
}

type configurationService struct {
	repo repository.NotificationConfigRepository
}

func NewConfigurationService(repo repository.NotificationConfigRepository) ConfigurationService {
	return &configurationService{repo: repo}
}

func mapNotificationConfig(c *model.NotificationConfig) *dto.NotificationConfigResponse {
	return &dto.NotificationConfigResponse{
		ID:                   c.ID,
		DirectoryGroup:       c.DirectoryGroup,
		AdditionalRecipients: c.AdditionalRecipients,
	}
}

func (s *configurationService) GetNotificationConfig(ctx context.Context) (*dto.NotificationConfigResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return mapNotificationConfig(cfg), nil
}

func (s *configurationService) UpdateNotificationConfig(ctx context.Context, req dto.UpdateNotificationConfigRequest) (*dto.NotificationConfigResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	cfg.DirectoryGroup = strings.TrimSpace(req.DirectoryGroup)
	cfg.AdditionalRecipients = nil
	if req.AdditionalRecipients != nil {
		if v := strings.TrimSpace(*req.AdditionalRecipients); v != "" {
			cfg.AdditionalRecipients = &v
		}
	}

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return mapNotificationConfig(cfg), nil
}
