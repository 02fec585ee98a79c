package models

import (
	"fmt"
	"strings"
	"time"
)

// Validation bounds for a story submission. Checked before any network or
// storage call; the remote API applies the same limits server-side.
const (
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
	MaxPhotoBytes     = 2 * 1024 * 1024
)

// Story is a remote-owned record mirrored locally. ID and CreatedAt are
// assigned by the remote API; SyncedAt is local bookkeeping stamped when the
// mirror copy is written.
type Story struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	CreatedAt   time.Time `json:"createdAt"`
	SyncedAt    time.Time `json:"syncedAt,omitzero"`
}

// Bookmark is a local-only favorite: a denormalized snapshot of a story at
// bookmark time, keyed by the story id. Deleting a mirrored story does not
// touch its bookmark and vice versa.
type Bookmark struct {
	StoryID      string    `json:"storyId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PhotoURL     string    `json:"photoUrl"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	CreatedAt    time.Time `json:"createdAt"`
	BookmarkedAt time.Time `json:"bookmarkedAt"`
}

// StoryDraft is a user-submitted story before it is sent to the remote API.
type StoryDraft struct {
	Description string
	Lat         float64
	Lon         float64
	PhotoName   string
	PhotoSize   int64
	PhotoType   string
}

// Validate checks the draft and returns one message per offending field,
// keyed by field name. An empty map means the draft is acceptable.
func (d StoryDraft) Validate() map[string]string {
	problems := make(map[string]string)

	desc := strings.TrimSpace(d.Description)
	if len(desc) < DescriptionMinLen {
		problems["description"] = fmt.Sprintf("description must be at least %d characters", DescriptionMinLen)
	} else if len(desc) > DescriptionMaxLen {
		problems["description"] = fmt.Sprintf("description must be at most %d characters", DescriptionMaxLen)
	}

	if d.Lat < -90 || d.Lat > 90 {
		problems["lat"] = "latitude must be between -90 and 90"
	}
	if d.Lon < -180 || d.Lon > 180 {
		problems["lon"] = "longitude must be between -180 and 180"
	}

	if d.PhotoName == "" {
		problems["photo"] = "photo is required"
	} else if d.PhotoSize > MaxPhotoBytes {
		problems["photo"] = "photo must be 2MB or smaller"
	} else if !strings.HasPrefix(d.PhotoType, "image/") {
		problems["photo"] = "photo must be an image"
	}

	return problems
}
