package enrichment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore reads the AI-EWG pipeline database. The file is opened
// read-only; this service never writes to it.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens path in read-only mode. A blank path or a missing
// file yields ErrUnavailable.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrUnavailable
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve episode db path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, abs)
	}

	db, err := sql.Open("sqlite", "file:"+abs+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open episode db: %w", err)
	}
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping episode db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type episodeMetadata struct {
	Enrichment *struct {
		Summary  string `json:"summary"`
		Entities []struct {
			Name string `json:"name"`
		} `json:"entities"`
		KeyMoments []struct {
			Title string `json:"title"`
		} `json:"key_moments"`
	} `json:"enrichment"`
}

func (s *SQLiteStore) GetEpisode(ctx context.Context, episodeID string) (*Episode, error) {
	query := `
		SELECT episode_id, title, COALESCE(duration_seconds, 0), COALESCE(show_name, ''),
		       COALESCE(date, ''), COALESCE(guest_names, ''), COALESCE(topics, ''),
		       COALESCE(has_transcript, 0), COALESCE(has_enrichment, 0)
		FROM json_metadata_index
		WHERE episode_id = ?
	`

	var (
		ep             Episode
		guests, topics string
	)
	err := s.db.QueryRowContext(ctx, query, episodeID).Scan(
		&ep.EpisodeID, &ep.Title, &ep.DurationSeconds, &ep.ShowName,
		&ep.Date, &guests, &topics, &ep.HasTranscript, &ep.HasEnrichment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query episode index: %w", err)
	}

	ep.GuestNames = decodeList(guests)
	ep.Topics = decodeList(topics)

	var raw sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT metadata FROM episodes WHERE id = ?`, episodeID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &ep, nil
	case err != nil:
		return nil, fmt.Errorf("query episode metadata: %w", err)
	}

	var meta episodeMetadata
	if raw.Valid && json.Unmarshal([]byte(raw.String), &meta) == nil && meta.Enrichment != nil {
		ep.Summary = meta.Enrichment.Summary
		for _, e := range meta.Enrichment.Entities {
			if e.Name != "" {
				ep.Entities = append(ep.Entities, e.Name)
			}
		}
		for _, m := range meta.Enrichment.KeyMoments {
			if m.Title != "" {
				ep.KeyMoments = append(ep.KeyMoments, m.Title)
			}
		}
	}

	return &ep, nil
}

func (s *SQLiteStore) SearchByTitle(ctx context.Context, title string, limit int) ([]*EpisodeSummary, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT episode_id, title, COALESCE(show_name, ''), COALESCE(date, ''), COALESCE(guest_names, '')
		FROM json_metadata_index
		WHERE title LIKE ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, "%"+title+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search episodes: %w", err)
	}
	defer rows.Close()

	var out []*EpisodeSummary
	for rows.Next() {
		var (
			e      EpisodeSummary
			guests string
		)
		if err := rows.Scan(&e.EpisodeID, &e.Title, &e.ShowName, &e.Date, &guests); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		e.GuestNames = decodeList(guests)
		out = append(out, &e)
	}

	return out, rows.Err()
}

// decodeList reads a JSON string array column, tolerating blanks and bad JSON.
func decodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
