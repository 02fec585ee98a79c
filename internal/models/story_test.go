package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDraft() StoryDraft {
	return StoryDraft{
		Description: "A quiet morning at the harbor",
		Lat:         -7.2575,
		Lon:         112.7521,
		PhotoName:   "harbor.jpg",
		PhotoSize:   512 * 1024,
		PhotoType:   "image/jpeg",
	}
}

func TestStoryDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StoryDraft)
		field   string
		message string
	}{
		{
			name:   "valid draft passes",
			mutate: func(d *StoryDraft) {},
		},
		{
			name:    "description too short",
			mutate:  func(d *StoryDraft) { d.Description = "too short" },
			field:   "description",
			message: "at least 10",
		},
		{
			name:    "description too long",
			mutate:  func(d *StoryDraft) { d.Description = strings.Repeat("a", 1001) },
			field:   "description",
			message: "at most 1000",
		},
		{
			name:    "latitude out of bounds",
			mutate:  func(d *StoryDraft) { d.Lat = 95 },
			field:   "lat",
			message: "between -90 and 90",
		},
		{
			name:    "longitude out of bounds",
			mutate:  func(d *StoryDraft) { d.Lon = -181 },
			field:   "lon",
			message: "between -180 and 180",
		},
		{
			name:    "photo missing",
			mutate:  func(d *StoryDraft) { d.PhotoName = "" },
			field:   "photo",
			message: "required",
		},
		{
			name:    "photo too large",
			mutate:  func(d *StoryDraft) { d.PhotoSize = MaxPhotoBytes + 1 },
			field:   "photo",
			message: "2MB",
		},
		{
			name:    "photo not an image",
			mutate:  func(d *StoryDraft) { d.PhotoType = "application/pdf" },
			field:   "photo",
			message: "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)

			problems := draft.Validate()
			if tt.field == "" {
				assert.Empty(t, problems)
				return
			}
			assert.Len(t, problems, 1)
			assert.Contains(t, problems[tt.field], tt.message)
		})
	}
}

func TestStoryDraftValidateBoundaryCoordinates(t *testing.T) {
	draft := validDraft()
	draft.Lat = 90
	draft.Lon = -180
	assert.Empty(t, draft.Validate())

	draft.Lat = -90
	draft.Lon = 180
	assert.Empty(t, draft.Validate())
}

func TestStoryDraftValidateDescriptionAtBounds(t *testing.T) {
	draft := validDraft()
	draft.Description = strings.Repeat("a", 10)
	assert.Empty(t, draft.Validate())

	draft.Description = strings.Repeat("a", 1000)
	assert.Empty(t, draft.Validate())
}
