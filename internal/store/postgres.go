package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"storymap-go/internal/models"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RunMigrations creates tables if they don't exist and applies schema
// updates. Migrations are strictly additive: a version bump that introduces
// a new collection must never drop or rewrite an existing one, so every
// statement here is CREATE IF NOT EXISTS or ADD COLUMN IF NOT EXISTS.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	migrations := []string{
		`ALTER TABLE stories ADD COLUMN IF NOT EXISTS synced_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW();`,
		`ALTER TABLE bookmarks ADD COLUMN IF NOT EXISTS bookmarked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW();`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_bookmarked_at ON bookmarks (bookmarked_at);`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Story methods

func (s *PostgresStore) PutStory(ctx context.Context, story models.Story) error {
	if story.ID == "" {
		return fmt.Errorf("story id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (id, name, description, photo_url, lat, lon, created_at, synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     photo_url = EXCLUDED.photo_url,
		     lat = EXCLUDED.lat,
		     lon = EXCLUDED.lon,
		     created_at = EXCLUDED.created_at,
		     synced_at = NOW()`,
		story.ID, story.Name, story.Description, story.PhotoURL, story.Lat, story.Lon, story.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetAllStories(ctx context.Context) ([]models.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, photo_url, lat, lon, created_at, synced_at
		 FROM stories ORDER BY synced_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var story models.Story
		var createdAt sql.NullTime
		if err := rows.Scan(&story.ID, &story.Name, &story.Description, &story.PhotoURL,
			&story.Lat, &story.Lon, &createdAt, &story.SyncedAt); err != nil {
			continue
		}
		if createdAt.Valid {
			story.CreatedAt = createdAt.Time
		}
		stories = append(stories, story)
	}

	return stories, rows.Err()
}

func (s *PostgresStore) GetStory(ctx context.Context, id string) (models.Story, bool, error) {
	var story models.Story
	var createdAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, photo_url, lat, lon, created_at, synced_at
		 FROM stories WHERE id = $1`,
		id,
	).Scan(&story.ID, &story.Name, &story.Description, &story.PhotoURL,
		&story.Lat, &story.Lon, &createdAt, &story.SyncedAt)

	if err == sql.ErrNoRows {
		return models.Story{}, false, nil
	}
	if err != nil {
		return models.Story{}, false, err
	}

	if createdAt.Valid {
		story.CreatedAt = createdAt.Time
	}
	return story, true, nil
}

// DeleteStory removes a mirrored story. Deleting an absent id is a no-op
// success.
func (s *PostgresStore) DeleteStory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = $1`, id)
	return err
}

// Bookmark methods

func (s *PostgresStore) PutBookmark(ctx context.Context, story models.Story) (models.Bookmark, error) {
	if story.ID == "" {
		return models.Bookmark{}, fmt.Errorf("story id is required")
	}

	var b models.Bookmark
	var createdAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO bookmarks (story_id, name, description, photo_url, lat, lon, created_at, bookmarked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (story_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     photo_url = EXCLUDED.photo_url,
		     lat = EXCLUDED.lat,
		     lon = EXCLUDED.lon,
		     created_at = EXCLUDED.created_at,
		     bookmarked_at = NOW()
		 RETURNING story_id, name, description, photo_url, lat, lon, created_at, bookmarked_at`,
		story.ID, story.Name, story.Description, story.PhotoURL, story.Lat, story.Lon, story.CreatedAt,
	).Scan(&b.StoryID, &b.Name, &b.Description, &b.PhotoURL, &b.Lat, &b.Lon, &createdAt, &b.BookmarkedAt)

	if err != nil {
		return models.Bookmark{}, err
	}
	if createdAt.Valid {
		b.CreatedAt = createdAt.Time
	}
	return b, nil
}

func (s *PostgresStore) GetAllBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT story_id, name, description, photo_url, lat, lon, created_at, bookmarked_at
		 FROM bookmarks ORDER BY bookmarked_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		var createdAt sql.NullTime
		if err := rows.Scan(&b.StoryID, &b.Name, &b.Description, &b.PhotoURL,
			&b.Lat, &b.Lon, &createdAt, &b.BookmarkedAt); err != nil {
			continue
		}
		if createdAt.Valid {
			b.CreatedAt = createdAt.Time
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

func (s *PostgresStore) IsBookmarked(ctx context.Context, storyID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE story_id = $1)`,
		storyID,
	).Scan(&exists)
	return exists, err
}

// RemoveBookmark deletes a bookmark. Removing an absent id is a no-op
// success.
func (s *PostgresStore) RemoveBookmark(ctx context.Context, storyID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE story_id = $1`, storyID)
	return err
}

// Setting methods

func (s *PostgresStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	return err
}

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PostgresStore) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	return err
}
