package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymap-go/internal/models"
)

func TestAddBookmark(t *testing.T) {
	store := newMemStore()
	h := NewHandler(store, &fakeAPI{}, nil, nil)

	body := `{"id":"story-1","name":"Alice","description":"A walk along the harbor"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AddBookmarkHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookmark models.Bookmark `json:"bookmark"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "story-1", resp.Bookmark.StoryID)
	assert.Equal(t, "Alice", resp.Bookmark.Name)
}

func TestAddBookmarkRequiresID(t *testing.T) {
	h := NewHandler(newMemStore(), &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(`{"name":"no id"}`))
	rec := httptest.NewRecorder()
	h.AddBookmarkHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookmarkStatus(t *testing.T) {
	store := newMemStore()
	_, err := store.PutBookmark(t.Context(), models.Story{ID: "story-1"})
	require.NoError(t, err)
	h := NewHandler(store, &fakeAPI{}, nil, nil)

	check := func(id string) bool {
		req := httptest.NewRequest(http.MethodGet, "/api/bookmarks/"+id, nil)
		rec := httptest.NewRecorder()
		h.BookmarkByIDHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Bookmarked bool `json:"bookmarked"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		return resp.Bookmarked
	}

	assert.True(t, check("story-1"))
	assert.False(t, check("story-2"))
}

func TestRemoveBookmark(t *testing.T) {
	store := newMemStore()
	_, err := store.PutBookmark(t.Context(), models.Story{ID: "story-1"})
	require.NoError(t, err)
	h := NewHandler(store, &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/bookmarks/story-1", nil)
	rec := httptest.NewRecorder()
	h.BookmarkByIDHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	bookmarked, err := store.IsBookmarked(t.Context(), "story-1")
	require.NoError(t, err)
	assert.False(t, bookmarked)
}

func TestRemoveAbsentBookmarkSucceeds(t *testing.T) {
	h := NewHandler(newMemStore(), &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/bookmarks/never-bookmarked", nil)
	rec := httptest.NewRecorder()
	h.BookmarkByIDHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookmarkByIDRequiresID(t *testing.T) {
	h := NewHandler(newMemStore(), &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks/", nil)
	rec := httptest.NewRecorder()
	h.BookmarkByIDHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookmarks(t *testing.T) {
	store := newMemStore()
	_, err := store.PutBookmark(t.Context(), models.Story{ID: "story-1", Name: "Alice"})
	require.NoError(t, err)
	h := NewHandler(store, &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	rec := httptest.NewRecorder()
	h.GetBookmarksHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookmarks []models.Bookmark `json:"bookmarks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Bookmarks, 1)
}
