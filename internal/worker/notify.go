package worker

import (
	"encoding/json"
	"strings"

	"storymap-go/internal/models"
)

// DefaultTag makes repeated notifications of the same category replace each
// other instead of stacking, unless the payload overrides it.
const DefaultTag = "storymap-notification"

const (
	defaultTitle = "StoryMap"
	defaultBody  = "You have a new notification"
	defaultIcon  = "images/logo.png"
)

// HandlePush renders a raw push payload into a notification. JSON payloads
// overlay the defaults field by field; anything that does not parse as JSON
// becomes the plain-text body.
func (w *Worker) HandlePush(payload []byte) models.Notification {
	n := models.Notification{
		Title: defaultTitle,
		Body:  defaultBody,
		Icon:  w.basePath + defaultIcon,
		Badge: w.basePath + defaultIcon,
		Tag:   DefaultTag,
	}

	if len(payload) == 0 {
		return n
	}

	var data struct {
		Title string         `json:"title"`
		Body  string         `json:"body"`
		Icon  string         `json:"icon"`
		Badge string         `json:"badge"`
		Tag   string         `json:"tag"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		n.Body = string(payload)
		return n
	}

	if data.Title != "" {
		n.Title = data.Title
	}
	if data.Body != "" {
		n.Body = data.Body
	}
	if data.Icon != "" {
		n.Icon = data.Icon
	}
	if data.Badge != "" {
		n.Badge = data.Badge
	}
	if data.Tag != "" {
		n.Tag = data.Tag
	}
	n.Data = data.Data

	return n
}

// Page is an open client window considered when a notification is clicked.
type Page struct {
	URL      string
	CanFocus bool
}

// ClickAction is the single outcome of a notification click: either an
// existing page to focus or a URL to open, never both.
type ClickAction struct {
	FocusURL string
	OpenURL  string
}

// HandleNotificationClick picks the first open page under the app's base
// path and focuses it; with none open, a new page at the base path is
// opened. Exactly one of the two happens.
func (w *Worker) HandleNotificationClick(pages []Page) ClickAction {
	for _, p := range pages {
		if strings.Contains(p.URL, w.basePath) && p.CanFocus {
			return ClickAction{FocusURL: p.URL}
		}
	}
	return ClickAction{OpenURL: w.basePath}
}
