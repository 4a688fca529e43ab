package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// AppliedChangeRepository records writes made to YouTube.
// Note: applied_changes is immutable - only inserts are allowed, no updates or deletes.
type AppliedChangeRepository interface {
	// CreateAppliedChange inserts an audit record and fills in ID, DiffHash and AppliedAt.
	CreateAppliedChange(ctx context.Context, change *models.AppliedChange) error

	// GetChangesByVideoID retrieves the apply history of one video, newest first.
	GetChangesByVideoID(ctx context.Context, videoID string, limit int) ([]*models.AppliedChange, error)

	// GetRecentChanges retrieves the most recent applies across all videos.
	GetRecentChanges(ctx context.Context, limit int) ([]*models.AppliedChange, error)
}

type appliedChangeRepository struct {
	pool *pgxpool.Pool
}

// NewAppliedChangeRepository creates a new AppliedChangeRepository.
func NewAppliedChangeRepository(pool *pgxpool.Pool) AppliedChangeRepository {
	return &appliedChangeRepository{pool: pool}
}

func (r *appliedChangeRepository) CreateAppliedChange(ctx context.Context, change *models.AppliedChange) error {
	before, err := json.Marshal(change.Before)
	if err != nil {
		return fmt.Errorf("marshal before state: %w", err)
	}
	after, err := json.Marshal(change.After)
	if err != nil {
		return fmt.Errorf("marshal after state: %w", err)
	}
	change.DiffHash = db.GenerateContentHash(string(after))

	query := `
		INSERT INTO applied_changes (video_id, suggestion_id, before_state, after_state, diff_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, applied_at
	`

	err = db.Executor(ctx, r.pool).QueryRow(ctx, query,
		change.VideoID,
		change.SuggestionID,
		before,
		after,
		change.DiffHash,
	).Scan(&change.ID, &change.AppliedAt)

	if err != nil {
		return db.WrapError(err, "create applied change")
	}

	return nil
}

func (r *appliedChangeRepository) GetChangesByVideoID(ctx context.Context, videoID string, limit int) ([]*models.AppliedChange, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, video_id, suggestion_id, before_state, after_state, diff_hash, applied_at
		FROM applied_changes
		WHERE video_id = $1
		ORDER BY applied_at DESC, id DESC
		LIMIT $2
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, videoID, limit)
	if err != nil {
		return nil, db.WrapError(err, "get changes by video id")
	}
	defer rows.Close()

	return scanAppliedChanges(rows)
}

func (r *appliedChangeRepository) GetRecentChanges(ctx context.Context, limit int) ([]*models.AppliedChange, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, video_id, suggestion_id, before_state, after_state, diff_hash, applied_at
		FROM applied_changes
		ORDER BY applied_at DESC, id DESC
		LIMIT $1
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "get recent changes")
	}
	defer rows.Close()

	return scanAppliedChanges(rows)
}

func scanAppliedChanges(rows pgx.Rows) ([]*models.AppliedChange, error) {
	var changes []*models.AppliedChange

	for rows.Next() {
		var (
			c             models.AppliedChange
			before, after []byte
		)
		if err := rows.Scan(&c.ID, &c.VideoID, &c.SuggestionID, &before, &after, &c.DiffHash, &c.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan applied change: %w", err)
		}
		if err := json.Unmarshal(before, &c.Before); err != nil {
			return nil, fmt.Errorf("decode before state: %w", err)
		}
		if err := json.Unmarshal(after, &c.After); err != nil {
			return nil, fmt.Errorf("decode after state: %w", err)
		}
		changes = append(changes, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied changes: %w", err)
	}

	return changes, nil
}
