package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// ChannelRepository defines operations for managing synced channels.
type ChannelRepository interface {
	// UpsertChannel creates a channel or refreshes its handle, title and last sync time.
	UpsertChannel(ctx context.Context, channel *models.Channel) error

	// GetChannelByHandle retrieves a channel by its @handle.
	GetChannelByHandle(ctx context.Context, handle string) (*models.Channel, error)

	// ListChannels retrieves all channels, most recently synced first.
	ListChannels(ctx context.Context) ([]*models.Channel, error)
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

func (r *channelRepository) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channels (channel_id, handle, title, last_synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (channel_id) DO UPDATE
		SET handle = COALESCE(NULLIF(EXCLUDED.handle, ''), channels.handle),
		    title = COALESCE(NULLIF(EXCLUDED.title, ''), channels.title),
		    last_synced_at = COALESCE(EXCLUDED.last_synced_at, channels.last_synced_at)
		RETURNING created_at, updated_at
	`

	err := db.Executor(ctx, r.pool).QueryRow(ctx, query,
		channel.ChannelID,
		channel.Handle,
		channel.Title,
		channel.LastSyncedAt,
	).Scan(&channel.CreatedAt, &channel.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "upsert channel")
	}

	return nil
}

func (r *channelRepository) GetChannelByHandle(ctx context.Context, handle string) (*models.Channel, error) {
	query := `
		SELECT channel_id, handle, title, last_synced_at, created_at, updated_at
		FROM channels
		WHERE lower(handle) = lower($1)
	`

	c := &models.Channel{}
	err := db.Executor(ctx, r.pool).QueryRow(ctx, query, handle).Scan(
		&c.ChannelID, &c.Handle, &c.Title, &c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get channel by handle")
	}

	return c, nil
}

func (r *channelRepository) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	query := `
		SELECT channel_id, handle, title, last_synced_at, created_at, updated_at
		FROM channels
		ORDER BY last_synced_at DESC NULLS LAST
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list channels")
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		c := &models.Channel{}
		if err := rows.Scan(&c.ChannelID, &c.Handle, &c.Title, &c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}
