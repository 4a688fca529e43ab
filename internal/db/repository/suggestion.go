package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
)

// SuggestionRepository stores generated suggestions. Rows are append-only
// except for DeleteAllForVideo, which backs the reject action.
type SuggestionRepository interface {
	// CreateSuggestion appends a suggestion and fills in its ID and server-side created_at.
	CreateSuggestion(ctx context.Context, s *models.Suggestion) error

	// GetLatest returns the newest suggestion for a video in one language.
	GetLatest(ctx context.Context, videoID, languageCode string) (*models.Suggestion, error)

	// GetLatestAnyLanguage returns the newest suggestion for a video regardless of language.
	GetLatestAnyLanguage(ctx context.Context, videoID string) (*models.Suggestion, error)

	// GetHistory returns every suggestion for a video, newest first. An empty
	// languageCode returns all languages.
	GetHistory(ctx context.Context, videoID, languageCode string) ([]*models.Suggestion, error)

	// DeleteAllForVideo removes every suggestion for a video.
	DeleteAllForVideo(ctx context.Context, videoID string) (int64, error)
}

type suggestionRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionRepository creates a new SuggestionRepository.
func NewSuggestionRepository(pool *pgxpool.Pool) SuggestionRepository {
	return &suggestionRepository{pool: pool}
}

const suggestionColumns = `id, video_id, language_code, title, description, tags, hashtags,
		thumbnail_text, pinned_comment, playlists, created_at`

func (r *suggestionRepository) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	if err := validation.ValidateSuggestion(s); err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}

	query := `
		INSERT INTO suggestions (video_id, language_code, title, description, tags, hashtags,
		                         thumbnail_text, pinned_comment, playlists)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := db.Executor(ctx, r.pool).QueryRow(ctx, query,
		s.VideoID,
		s.LanguageCode,
		s.Title,
		s.Description,
		nonNil(s.Tags),
		nonNil(s.Hashtags),
		nonNil(s.ThumbnailText),
		s.PinnedComment,
		nonNil(s.Playlists),
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		return db.WrapError(err, "create suggestion")
	}

	return nil
}

func (r *suggestionRepository) GetLatest(ctx context.Context, videoID, languageCode string) (*models.Suggestion, error) {
	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE video_id = $1 AND language_code = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	s, err := scanSuggestion(db.Executor(ctx, r.pool).QueryRow(ctx, query, videoID, languageCode))
	if err != nil {
		return nil, db.WrapError(err, "get latest suggestion")
	}

	return s, nil
}

func (r *suggestionRepository) GetLatestAnyLanguage(ctx context.Context, videoID string) (*models.Suggestion, error) {
	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE video_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	s, err := scanSuggestion(db.Executor(ctx, r.pool).QueryRow(ctx, query, videoID))
	if err != nil {
		return nil, db.WrapError(err, "get latest suggestion any language")
	}

	return s, nil
}

func (r *suggestionRepository) GetHistory(ctx context.Context, videoID, languageCode string) ([]*models.Suggestion, error) {
	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE video_id = $1 AND ($2 = '' OR language_code = $2)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, videoID, languageCode)
	if err != nil {
		return nil, db.WrapError(err, "get suggestion history")
	}
	defer rows.Close()

	var history []*models.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		history = append(history, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}

	return history, nil
}

func (r *suggestionRepository) DeleteAllForVideo(ctx context.Context, videoID string) (int64, error) {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM suggestions WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, db.WrapError(err, "delete suggestions")
	}

	return tag.RowsAffected(), nil
}

func scanSuggestion(row pgx.Row) (*models.Suggestion, error) {
	s := &models.Suggestion{}
	err := row.Scan(
		&s.ID,
		&s.VideoID,
		&s.LanguageCode,
		&s.Title,
		&s.Description,
		&s.Tags,
		&s.Hashtags,
		&s.ThumbnailText,
		&s.PinnedComment,
		&s.Playlists,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
