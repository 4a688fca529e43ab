package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// QuotaRepository defines operations for managing API quota usage
type QuotaRepository interface {
	// GetTodaysQuota retrieves today's quota usage
	GetTodaysQuota(ctx context.Context) (*models.QuotaInfo, error)

	// IncrementQuota adds cost units to today's usage, attributed to operation
	IncrementQuota(ctx context.Context, quotaCost int, operation string) error

	// GetQuotaHistory retrieves quota usage for the last n days
	GetQuotaHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error)
}

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a new QuotaRepository
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) GetTodaysQuota(ctx context.Context) (*models.QuotaInfo, error) {
	info := &models.QuotaInfo{}
	err := db.Executor(ctx, r.pool).QueryRow(ctx, `SELECT * FROM get_todays_quota_usage()`).Scan(
		&info.QuotaUsed,
		&info.QuotaLimit,
		&info.QuotaRemaining,
		&info.OperationsCount,
	)
	if err != nil {
		return nil, db.WrapError(err, "get todays quota")
	}

	return info, nil
}

func (r *quotaRepository) IncrementQuota(ctx context.Context, quotaCost int, operation string) error {
	if operation == "" {
		operation = "other"
	}

	if _, err := db.Executor(ctx, r.pool).Exec(ctx, `SELECT increment_quota_usage($1, $2)`, quotaCost, operation); err != nil {
		return db.WrapError(err, "increment quota")
	}

	return nil
}

func (r *quotaRepository) GetQuotaHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error) {
	if days <= 0 {
		days = 7
	}

	query := `
		SELECT id, date, quota_used, quota_limit, operations_count,
		       videos_list_calls, videos_update_calls, channels_list_calls, other_calls,
		       created_at, updated_at
		FROM api_quota_usage
		WHERE date >= CURRENT_DATE - INTERVAL '1 day' * $1
		ORDER BY date DESC
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, days)
	if err != nil {
		return nil, db.WrapError(err, "get quota history")
	}
	defer rows.Close()

	var history []*models.APIQuotaUsage
	for rows.Next() {
		usage := &models.APIQuotaUsage{}
		err := rows.Scan(
			&usage.ID,
			&usage.Date,
			&usage.QuotaUsed,
			&usage.QuotaLimit,
			&usage.OperationsCount,
			&usage.VideosListCalls,
			&usage.VideosUpdateCalls,
			&usage.ChannelsListCalls,
			&usage.OtherCalls,
			&usage.CreatedAt,
			&usage.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quota history: %w", err)
		}
		history = append(history, usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quota history: %w", err)
	}

	return history, nil
}
