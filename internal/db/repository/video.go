package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
)

// VideoRepository defines operations on the video registry.
type VideoRepository interface {
	// UpsertVideo inserts a video or refreshes its synced metadata. Status is
	// written only when video.Status is set; otherwise an existing row keeps
	// its status and a new row starts as pending.
	UpsertVideo(ctx context.Context, video *models.Video) error

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)

	// GetVideosByStatus lists videos newest first. A nil status lists every video.
	GetVideosByStatus(ctx context.Context, status *models.Status, limit int) ([]*models.Video, error)

	// GetPendingByPriority lists pending videos in the order a generation batch should take them.
	GetPendingByPriority(ctx context.Context, priority models.Priority, limit int) ([]*models.Video, error)

	// MarkStatus overwrites the status unconditionally.
	MarkStatus(ctx context.Context, videoID string, status models.Status) error

	// TransitionStatus moves a video to status "to" only if it is currently in
	// one of "from", returning the status it had before.
	TransitionStatus(ctx context.Context, videoID string, from []models.Status, to models.Status) (models.Status, error)

	// CountsByStatus returns the number of videos in every status, including zeros.
	CountsByStatus(ctx context.Context) (map[models.Status]int, error)

	// SetEpisode links a video to an AI-EWG episode, or unlinks it when episodeID is nil.
	SetEpisode(ctx context.Context, videoID string, episodeID *string) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `video_id, channel_id, channel_handle, title_original, description_original,
		tags_original, published_at, episode_id, status, created_at, updated_at`

func (r *videoRepository) UpsertVideo(ctx context.Context, video *models.Video) error {
	if err := validation.ValidateVideo(video); err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}

	tags := video.TagsOriginal
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO videos (video_id, channel_id, channel_handle, title_original, description_original,
		                    tags_original, published_at, episode_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE(NULLIF($9::text, ''), 'pending'))
		ON CONFLICT (video_id) DO UPDATE
		SET channel_id = EXCLUDED.channel_id,
		    channel_handle = COALESCE(EXCLUDED.channel_handle, videos.channel_handle),
		    title_original = EXCLUDED.title_original,
		    description_original = EXCLUDED.description_original,
		    tags_original = EXCLUDED.tags_original,
		    published_at = EXCLUDED.published_at,
		    episode_id = COALESCE(EXCLUDED.episode_id, videos.episode_id),
		    status = CASE WHEN $9::text = '' THEN videos.status ELSE EXCLUDED.status END
		RETURNING status, episode_id, created_at, updated_at
	`

	err := db.Executor(ctx, r.pool).QueryRow(ctx, query,
		video.VideoID,
		video.ChannelID,
		video.ChannelHandle,
		video.TitleOriginal,
		video.DescriptionOriginal,
		tags,
		video.PublishedAt,
		video.EpisodeID,
		string(video.Status),
	).Scan(
		&video.Status,
		&video.EpisodeID,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return db.WrapError(err, "upsert video")
	}

	return nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE video_id = $1`

	video, err := scanVideo(db.Executor(ctx, r.pool).QueryRow(ctx, query, videoID))
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) GetVideosByStatus(ctx context.Context, status *models.Status, limit int) ([]*models.Video, error) {
	if limit <= 0 {
		limit = 50
	}

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE $1::text IS NULL OR status = $1
		ORDER BY published_at DESC NULLS LAST, video_id
		LIMIT $2
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, statusArg, limit)
	if err != nil {
		return nil, db.WrapError(err, "get videos by status")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) GetPendingByPriority(ctx context.Context, priority models.Priority, limit int) ([]*models.Video, error) {
	if limit <= 0 {
		limit = 10
	}

	// OrderBy only returns one of three fixed expressions.
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE status = 'pending'
		ORDER BY ` + priority.OrderBy() + `
		LIMIT $1
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "get pending by priority")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) MarkStatus(ctx context.Context, videoID string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("mark status: %w: %q", db.ErrCheckViolation, status)
	}

	tag, err := db.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE videos SET status = $2 WHERE video_id = $1`, videoID, string(status))
	if err != nil {
		return db.WrapError(err, "mark status")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark status: %w", db.ErrNotFound)
	}

	return nil
}

func (r *videoRepository) TransitionStatus(ctx context.Context, videoID string, from []models.Status, to models.Status) (models.Status, error) {
	if !to.Valid() {
		return "", fmt.Errorf("transition status: %w: %q", db.ErrCheckViolation, to)
	}

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	exec := db.Executor(ctx, r.pool)

	query := `
		WITH prev AS (
			SELECT status FROM videos WHERE video_id = $1 FOR UPDATE
		)
		UPDATE videos v
		SET status = $2
		FROM prev
		WHERE v.video_id = $1 AND prev.status = ANY($3::text[])
		RETURNING prev.status
	`

	var previous models.Status
	err := exec.QueryRow(ctx, query, videoID, string(to), allowed).Scan(&previous)
	if err == nil {
		return previous, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", db.WrapError(err, "transition status")
	}

	var current models.Status
	if err := exec.QueryRow(ctx, `SELECT status FROM videos WHERE video_id = $1`, videoID).Scan(&current); err != nil {
		return "", db.WrapError(err, "transition status")
	}

	return current, fmt.Errorf("transition status %s -> %s: %w (current %s)", videoID, to, db.ErrStatusConflict, current)
}

func (r *videoRepository) CountsByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := db.Executor(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM videos GROUP BY status`)
	if err != nil {
		return nil, db.WrapError(err, "count videos by status")
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}

	for rows.Next() {
		var (
			status models.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	return counts, nil
}

func (r *videoRepository) SetEpisode(ctx context.Context, videoID string, episodeID *string) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE videos SET episode_id = $2 WHERE video_id = $1`, videoID, episodeID)
	if err != nil {
		return db.WrapError(err, "set episode")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set episode: %w", db.ErrNotFound)
	}

	return nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	video := &models.Video{}
	err := row.Scan(
		&video.VideoID,
		&video.ChannelID,
		&video.ChannelHandle,
		&video.TitleOriginal,
		&video.DescriptionOriginal,
		&video.TagsOriginal,
		&video.PublishedAt,
		&video.EpisodeID,
		&video.Status,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return video, nil
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
