package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"storymap-go/internal/api"
	"storymap-go/internal/models"
)

func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// GetStoriesHandler lists stories from the remote API, mirroring successes
// into the local store. When the remote API is unreachable the mirror is
// served instead, so the view keeps working offline.
func (h *Handler) GetStoriesHandler(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if !user.LoggedIn() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stories, err := h.API.GetStories(r.Context(), user.Token)
	if err != nil {
		log.Printf("Remote story list failed, serving local mirror: %v", err)
		local, lerr := h.Store.GetAllStories(r.Context())
		if lerr != nil {
			http.Error(w, "Stories unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"error":     false,
			"listStory": local,
			"source":    "local",
		})
		return
	}

	h.mirrorStories(r.Context(), stories)

	writeJSON(w, http.StatusOK, map[string]any{
		"error":     false,
		"listStory": stories,
		"source":    "remote",
	})
}

// mirrorStories copies fetched stories into the local store. Best-effort:
// a store failure degrades to remote-only behavior, never to an error.
func (h *Handler) mirrorStories(ctx context.Context, stories []models.Story) {
	for _, story := range stories {
		if err := h.Store.PutStory(ctx, story); err != nil {
			log.Printf("Failed to mirror story %s: %v", story.ID, err)
			return
		}
	}
}

// AddStoryHandler validates a submission and forwards it to the remote API.
// Validation failures are reported per field before any network call.
func (h *Handler) AddStoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := CurrentUser(r)
	if !user.LoggedIn() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Photo limit plus headroom for the other fields.
	if err := r.ParseMultipartForm(models.MaxPhotoBytes + 64*1024); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	lat, latErr := parseCoord(r.FormValue("lat"))
	lon, lonErr := parseCoord(r.FormValue("lon"))

	draft := models.StoryDraft{
		Description: r.FormValue("description"),
		Lat:         lat,
		Lon:         lon,
	}

	photo, header, err := r.FormFile("photo")
	if err == nil {
		defer photo.Close()
		draft.PhotoName = header.Filename
		draft.PhotoSize = header.Size
		draft.PhotoType = header.Header.Get("Content-Type")
	}

	problems := draft.Validate()
	if latErr != nil {
		problems["lat"] = "latitude must be a number"
	}
	if lonErr != nil {
		problems["lon"] = "longitude must be a number"
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   true,
			"message": "validation failed",
			"fields":  problems,
		})
		return
	}

	err = h.API.AddStory(r.Context(), user.Token, api.NewStory{
		Description: draft.Description,
		Lat:         draft.Lat,
		Lon:         draft.Lon,
		PhotoName:   draft.PhotoName,
		Photo:       photo,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	// The remote API assigns the id, so refresh the mirror from the list
	// endpoint. Best-effort.
	if stories, err := h.API.GetStories(r.Context(), user.Token); err == nil {
		h.mirrorStories(r.Context(), stories)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"error": false, "message": "story created"})
}
