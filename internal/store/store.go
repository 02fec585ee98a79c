package store

import (
	"context"

	"storymap-go/internal/models"
)

// Setting keys for the single-entry mirrors kept alongside the collections.
const (
	SettingAuthToken        = "auth_token"
	SettingUserName         = "user_name"
	SettingUserEmail        = "user_email"
	SettingPushSubscription = "push_subscription"
)

// StoryStore holds the local mirror of remote stories. Absent keys are not
// errors: reads report presence explicitly and deletes are no-op successes.
type StoryStore interface {
	PutStory(ctx context.Context, story models.Story) error
	GetAllStories(ctx context.Context) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (models.Story, bool, error)
	DeleteStory(ctx context.Context, id string) error
}

// BookmarkStore holds local-only favorites, at most one per story id.
// A repeat PutBookmark overwrites the previous row and restamps
// bookmarked_at.
type BookmarkStore interface {
	PutBookmark(ctx context.Context, story models.Story) (models.Bookmark, error)
	GetAllBookmarks(ctx context.Context) ([]models.Bookmark, error)
	IsBookmarked(ctx context.Context, storyID string) (bool, error)
	RemoveBookmark(ctx context.Context, storyID string) error
}

// SettingStore holds single string entries: the serialized push subscription
// mirror and the auth token with cached display fields.
type SettingStore interface {
	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	DeleteSetting(ctx context.Context, key string) error
}

// Store is the full local persistent store. Callers treat any failure as
// "local features unavailable" and keep working against the remote API.
type Store interface {
	StoryStore
	BookmarkStore
	SettingStore
	RunMigrations(ctx context.Context) error
}
