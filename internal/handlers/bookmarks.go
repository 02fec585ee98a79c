package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"storymap-go/internal/models"
)

// GetBookmarksHandler lists the local-only favorites.
func (h *Handler) GetBookmarksHandler(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.Store.GetAllBookmarks(r.Context())
	if err != nil {
		http.Error(w, "Bookmarks unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "bookmarks": bookmarks})
}

// AddBookmarkHandler snapshots a story as a bookmark. Repeating the call for
// the same story overwrites the previous row and restamps bookmarkedAt.
func (h *Handler) AddBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	var story models.Story
	if err := json.NewDecoder(r.Body).Decode(&story); err != nil || story.ID == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	bookmark, err := h.Store.PutBookmark(r.Context(), story)
	if err != nil {
		http.Error(w, "Failed to save bookmark", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "bookmark": bookmark})
}

// BookmarkByIDHandler serves status checks and removals for one story id.
// Note the status-then-toggle sequence on the client is not atomic; the
// store's last write wins.
func (h *Handler) BookmarkByIDHandler(w http.ResponseWriter, r *http.Request) {
	storyID := strings.TrimPrefix(r.URL.Path, "/api/bookmarks/")
	if storyID == "" {
		http.Error(w, "Story id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		bookmarked, err := h.Store.IsBookmarked(r.Context(), storyID)
		if err != nil {
			http.Error(w, "Bookmarks unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"error": false, "bookmarked": bookmarked})
	case http.MethodDelete:
		// Removing an absent bookmark is a no-op success.
		if err := h.Store.RemoveBookmark(r.Context(), storyID); err != nil {
			http.Error(w, "Failed to remove bookmark", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"error": false})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
