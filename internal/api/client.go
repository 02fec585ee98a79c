package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storymap-go/internal/models"
)

// DefaultBaseURL is the public story API this app is a client of.
const DefaultBaseURL = "https://story-api.dicoding.dev/v1"

// Client is a thin wrapper over the remote story API. All hard logic
// (auth, storage, image hosting) lives on the server side; the client only
// shapes requests and surfaces the API's error messages.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the API root, used to recognize the API namespace when
// deciding what the offline cache may keep.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type apiEnvelope struct {
	Error     bool           `json:"error"`
	Message   string         `json:"message"`
	ListStory []models.Story `json:"listStory"`
}

// LoginResult is the auth payload returned by the remote API.
type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewStory is a validated story submission forwarded as multipart form data.
type NewStory struct {
	Description string
	Lat         float64
	Lon         float64
	PhotoName   string
	Photo       io.Reader
}

func (c *Client) do(req *http.Request) (*apiEnvelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("api: unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("api: invalid response: %w", err)
	}
	if env.Error || resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("api: %s", msg)
	}
	return &env, nil
}

// GetStories lists stories visible to the bearer of the token.
func (c *Client) GetStories(ctx context.Context, token string) ([]models.Story, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stories", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return env.ListStory, nil
}

// AddStory submits a new story as multipart form data. The remote API
// assigns the story id and timestamp.
func (c *Client) AddStory(ctx context.Context, token string, story NewStory) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("description", story.Description); err != nil {
		return err
	}
	if err := mw.WriteField("lat", strconv.FormatFloat(story.Lat, 'f', -1, 64)); err != nil {
		return err
	}
	if err := mw.WriteField("lon", strconv.FormatFloat(story.Lon, 'f', -1, 64)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("photo", story.PhotoName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, story.Photo); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stories", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(req)
	return err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return LoginResult{}, err
	}
	defer resp.Body.Close()

	var result struct {
		Error       bool        `json:"error"`
		Message     string      `json:"message"`
		LoginResult LoginResult `json:"loginResult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return LoginResult{}, fmt.Errorf("api: invalid response: %w", err)
	}
	if result.Error || resp.StatusCode >= 400 {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return LoginResult{}, fmt.Errorf("api: %s", msg)
	}
	return result.LoginResult, nil
}

// Register creates a new account on the remote API.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}
