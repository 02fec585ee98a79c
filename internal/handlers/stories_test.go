package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymap-go/internal/models"
)

func multipartStory(t *testing.T, description, lat, lon string, photo []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", description))
	require.NoError(t, mw.WriteField("lat", lat))
	require.NoError(t, mw.WriteField("lon", lon))
	if photo != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		fw, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stories", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAddStoryRejectsOutOfRangeLatitude(t *testing.T) {
	apiClient := &fakeAPI{}
	h := NewHandler(newMemStore(), apiClient, nil, nil)

	req := loginRequest("", "", multipartStory(t, "A perfectly fine description", "95", "106.8", []byte("jpg")))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  bool              `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Error)
	assert.Contains(t, resp.Fields["lat"], "between -90 and 90")

	assert.Zero(t, apiClient.addCalls, "validation failures never reach the network")
}

func TestAddStoryRejectsShortDescription(t *testing.T) {
	apiClient := &fakeAPI{}
	h := NewHandler(newMemStore(), apiClient, nil, nil)

	req := loginRequest("", "", multipartStory(t, "too short", "-6.2", "106.8", []byte("jpg")))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Fields["description"])
	assert.Zero(t, apiClient.addCalls)
}

func TestAddStoryCollectsAllFieldErrors(t *testing.T) {
	apiClient := &fakeAPI{}
	h := NewHandler(newMemStore(), apiClient, nil, nil)

	req := loginRequest("", "", multipartStory(t, "short", "95", "200", nil))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Fields["description"])
	assert.NotEmpty(t, resp.Fields["lat"])
	assert.NotEmpty(t, resp.Fields["lon"])
	assert.NotEmpty(t, resp.Fields["photo"])
}

func TestAddStoryForwardsValidSubmission(t *testing.T) {
	apiClient := &fakeAPI{stories: []models.Story{{ID: "story-1", Name: "Alice"}}}
	store := newMemStore()
	h := NewHandler(store, apiClient, nil, nil)

	req := loginRequest("", "", multipartStory(t, "A walk along the harbor at dusk", "-6.2", "106.8", []byte("jpg")))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, apiClient.addCalls)
	assert.Equal(t, "test-token", apiClient.lastToken)
	assert.Equal(t, "A walk along the harbor at dusk", apiClient.lastStory.Description)

	// Mirror refreshed from the list endpoint after the create.
	_, ok, err := store.GetStory(req.Context(), "story-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddStoryRequiresLogin(t *testing.T) {
	apiClient := &fakeAPI{}
	h := NewHandler(newMemStore(), apiClient, nil, nil)

	req := multipartStory(t, "A walk along the harbor at dusk", "-6.2", "106.8", []byte("jpg"))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, apiClient.addCalls)
}

func TestGetStoriesMirrorsRemote(t *testing.T) {
	apiClient := &fakeAPI{stories: []models.Story{
		{ID: "story-1", Name: "Alice", Description: "First"},
		{ID: "story-2", Name: "Bob", Description: "Second"},
	}}
	store := newMemStore()
	h := NewHandler(store, apiClient, nil, nil)

	req := loginRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	h.GetStoriesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Source    string         `json:"source"`
		ListStory []models.Story `json:"listStory"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "remote", resp.Source)
	assert.Len(t, resp.ListStory, 2)

	local, err := store.GetAllStories(req.Context())
	require.NoError(t, err)
	assert.Len(t, local, 2, "remote stories mirrored locally")
}

func TestGetStoriesFallsBackToLocalMirror(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.PutStory(t.Context(), models.Story{
		ID: "story-1", Name: "Alice", Description: "Mirrored earlier", SyncedAt: time.Now(),
	}))
	apiClient := &fakeAPI{storiesErr: io.ErrUnexpectedEOF}
	h := NewHandler(store, apiClient, nil, nil)

	req := loginRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	h.GetStoriesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Source    string         `json:"source"`
		ListStory []models.Story `json:"listStory"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "local", resp.Source)
	require.Len(t, resp.ListStory, 1)
	assert.Equal(t, "story-1", resp.ListStory[0].ID)
}

func TestGetStoriesBothSourcesDown(t *testing.T) {
	store := newMemStore()
	store.failAll = true
	apiClient := &fakeAPI{storiesErr: io.ErrUnexpectedEOF}
	h := NewHandler(store, apiClient, nil, nil)

	req := loginRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	h.GetStoriesHandler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetStoriesRequiresLogin(t *testing.T) {
	h := NewHandler(newMemStore(), &fakeAPI{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	h.GetStoriesHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddStoryRemoteFailure(t *testing.T) {
	apiClient := &fakeAPI{addErr: io.ErrUnexpectedEOF}
	h := NewHandler(newMemStore(), apiClient, nil, nil)

	req := loginRequest("", "", multipartStory(t, "A walk along the harbor at dusk", "-6.2", "106.8", []byte("jpg")))
	rec := httptest.NewRecorder()
	h.AddStoryHandler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "unexpected EOF"))
}
