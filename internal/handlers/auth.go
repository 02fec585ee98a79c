package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"storymap-go/internal/models"
	"storymap-go/internal/store"
)

var (
	sessionStore = sessions.NewCookieStore([]byte(sessionSecret()))
	sessionName  = "storymap-session"
)

func sessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "secret-key-change-in-production"
}

// LoginHandler delegates authentication to the remote API and caches the
// bearer token plus display fields in the session and the settings mirror.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.API.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	session, _ := sessionStore.Get(r, sessionName)
	session.Values["auth_token"] = result.Token
	session.Values["user_name"] = result.Name
	session.Values["user_email"] = result.Email
	session.Save(r, w)

	// Mirror auth state for callers outside a request context, e.g. the
	// push manager's API registration. Best-effort.
	h.saveSetting(r, store.SettingAuthToken, result.Token)
	h.saveSetting(r, store.SettingUserName, result.Name)
	h.saveSetting(r, store.SettingUserEmail, result.Email)

	// Auto-subscribe on login when no subscription exists yet.
	if h.Push != nil && !h.Push.IsSubscribed(r.Context()) {
		if _, err := h.Push.Subscribe(r.Context()); err != nil {
			log.Printf("Auto-subscribe after login failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"error": false,
		"loginResult": map[string]string{
			"token": result.Token,
			"name":  result.Name,
			"email": result.Email,
		},
	})
}

// RegisterHandler forwards account creation to the remote API.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.API.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"error": false, "message": "registered"})
}

// LogoutHandler clears the session and every auth-scoped setting.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["auth_token"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)

	for _, key := range []string{store.SettingAuthToken, store.SettingUserName, store.SettingUserEmail} {
		if err := h.Store.DeleteSetting(r.Context(), key); err != nil {
			log.Printf("Failed to clear setting %s: %v", key, err)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) saveSetting(r *http.Request, key, value string) {
	if err := h.Store.SetSetting(r.Context(), key, value); err != nil {
		log.Printf("Failed to save setting %s: %v", key, err)
	}
}

// AuthMiddleware rejects requests without a logged-in session.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !CurrentUser(r).LoggedIn() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// CurrentUser returns the auth-scoped state from the session.
func CurrentUser(r *http.Request) models.SessionUser {
	session, _ := sessionStore.Get(r, sessionName)
	token, _ := session.Values["auth_token"].(string)
	name, _ := session.Values["user_name"].(string)
	email, _ := session.Values["user_email"].(string)
	return models.SessionUser{Token: token, Name: name, Email: email}
}
