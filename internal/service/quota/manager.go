// Package quota tracks YouTube Data API unit spend against the daily allowance.
package quota

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/repository"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Unit costs of the Data API calls this service makes.
const (
	CostChannelsList      = 1
	CostPlaylistItemsList = 1
	CostVideosList        = 1
	CostVideosUpdate      = 50
)

// ErrExhausted is returned when a call would push usage past the threshold
// or the API reports the daily quota is spent.
var ErrExhausted = errors.New("youtube quota exhausted")

// Manager handles YouTube API quota management
type Manager struct {
	repo             repository.QuotaRepository
	dailyLimit       int
	thresholdPercent int // Stop processing when this % of quota is used
	log              *zap.Logger
}

// NewManager creates a new quota manager
func NewManager(repo repository.QuotaRepository, dailyLimit int, thresholdPercent int) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = 10000 // YouTube API v3 default
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = 90
	}

	return &Manager{
		repo:             repo,
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
		log:              logger.L().Named("quota"),
	}
}

func (m *Manager) threshold() int {
	return (m.dailyLimit * m.thresholdPercent) / 100
}

// CheckQuotaAvailable reports whether requiredQuota units fit under the threshold.
func (m *Manager) CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *models.QuotaInfo, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to get quota info: %w", err)
	}

	if info.QuotaUsed+requiredQuota > m.threshold() {
		m.log.Warn("quota threshold would be exceeded",
			zap.Int("used", info.QuotaUsed),
			zap.Int("required", requiredQuota),
			zap.Int("threshold", m.threshold()),
			zap.Int("dailyLimit", m.dailyLimit))
		return false, info, nil
	}

	return true, info, nil
}

// RecordQuotaUsage records API quota usage
func (m *Manager) RecordQuotaUsage(ctx context.Context, quotaCost int, operation string) error {
	if err := m.repo.IncrementQuota(ctx, quotaCost, operation); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	m.log.Debug("quota used", zap.Int("cost", quotaCost), zap.String("operation", operation))
	return nil
}

// GetQuotaInfo returns current quota information
func (m *Manager) GetQuotaInfo(ctx context.Context) (*models.QuotaInfo, error) {
	return m.repo.GetTodaysQuota(ctx)
}

// GetQuotaHistory returns per-day usage for the last n days.
func (m *Manager) GetQuotaHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error) {
	return m.repo.GetQuotaHistory(ctx, days)
}

// GetRemainingQuota returns how much quota is remaining before threshold
func (m *Manager) GetRemainingQuota(ctx context.Context) (int, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return 0, err
	}

	remaining := m.threshold() - info.QuotaUsed
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}
