package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"storymap-go/internal/api"
	"storymap-go/internal/models"
	"storymap-go/internal/push"
	"storymap-go/internal/store"
	"storymap-go/internal/worker"
)

// StoryAPI is the slice of the remote API the views consume.
type StoryAPI interface {
	GetStories(ctx context.Context, token string) ([]models.Story, error)
	AddStory(ctx context.Context, token string, story api.NewStory) error
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Register(ctx context.Context, name, email, password string) error
}

type Handler struct {
	Store  store.Store
	API    StoryAPI
	Push   *push.Manager
	Worker *worker.Worker

	// VAPID key pair used to sign webpush deliveries; the public half is
	// also what subscriptions are created against.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

func NewHandler(s store.Store, apiClient StoryAPI, pushManager *push.Manager, w *worker.Worker) *Handler {
	return &Handler{
		Store:  s,
		API:    apiClient,
		Push:   pushManager,
		Worker: w,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// SessionHandler reports the current auth-scoped view state.
func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"loggedIn": user.LoggedIn(),
		"name":     user.Name,
		"email":    user.Email,
	})
}
