package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"storymap-go/internal/api"
	"storymap-go/internal/models"
)

// memStore is an in-memory stand-in for the postgres store.
type memStore struct {
	mu        sync.Mutex
	stories   map[string]models.Story
	bookmarks map[string]models.Bookmark
	settings  map[string]string
	failAll   bool
}

func newMemStore() *memStore {
	return &memStore{
		stories:   map[string]models.Story{},
		bookmarks: map[string]models.Bookmark{},
		settings:  map[string]string{},
	}
}

var errStoreDown = errors.New("store down")

func (s *memStore) PutStory(_ context.Context, story models.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	s.stories[story.ID] = story
	return nil
}

func (s *memStore) GetAllStories(_ context.Context) ([]models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	var out []models.Story
	for _, story := range s.stories {
		out = append(out, story)
	}
	return out, nil
}

func (s *memStore) GetStory(_ context.Context, id string) (models.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return models.Story{}, false, errStoreDown
	}
	story, ok := s.stories[id]
	return story, ok, nil
}

func (s *memStore) DeleteStory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stories, id)
	return nil
}

func (s *memStore) PutBookmark(_ context.Context, story models.Story) (models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return models.Bookmark{}, errStoreDown
	}
	b := models.Bookmark{
		StoryID:     story.ID,
		Name:        story.Name,
		Description: story.Description,
		PhotoURL:    story.PhotoURL,
		Lat:         story.Lat,
		Lon:         story.Lon,
		CreatedAt:   story.CreatedAt,
	}
	s.bookmarks[story.ID] = b
	return b, nil
}

func (s *memStore) GetAllBookmarks(_ context.Context) ([]models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	var out []models.Bookmark
	for _, b := range s.bookmarks {
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) IsBookmarked(_ context.Context, storyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return false, errStoreDown
	}
	_, ok := s.bookmarks[storyID]
	return ok, nil
}

func (s *memStore) RemoveBookmark(_ context.Context, storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, storyID)
	return nil
}

func (s *memStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	s.settings[key] = value
	return nil
}

func (s *memStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *memStore) DeleteSetting(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

func (s *memStore) RunMigrations(_ context.Context) error { return nil }

// fakeAPI is a scriptable stand-in for the remote story API.
type fakeAPI struct {
	stories    []models.Story
	storiesErr error
	addErr     error
	loginErr   error
	login      api.LoginResult

	getCalls  int
	addCalls  int
	lastToken string
	lastStory api.NewStory
}

func (a *fakeAPI) GetStories(_ context.Context, token string) ([]models.Story, error) {
	a.getCalls++
	a.lastToken = token
	if a.storiesErr != nil {
		return nil, a.storiesErr
	}
	return a.stories, nil
}

func (a *fakeAPI) AddStory(_ context.Context, token string, story api.NewStory) error {
	a.addCalls++
	a.lastToken = token
	a.lastStory = story
	return a.addErr
}

func (a *fakeAPI) Login(_ context.Context, email, password string) (api.LoginResult, error) {
	if a.loginErr != nil {
		return api.LoginResult{}, a.loginErr
	}
	return a.login, nil
}

func (a *fakeAPI) Register(_ context.Context, name, email, password string) error {
	return nil
}

// loginRequest returns a request carrying a logged-in session cookie.
func loginRequest(method, target string, body *http.Request) *http.Request {
	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, _ := sessionStore.Get(seed, sessionName)
	session.Values["auth_token"] = "test-token"
	session.Values["user_name"] = "Alice"
	session.Values["user_email"] = "alice@example.com"
	_ = session.Save(seed, rec)

	req := body
	if req == nil {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}
