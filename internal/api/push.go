package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"storymap-go/internal/models"
)

// SubscribePush registers a push subscription with the remote API so it can
// deliver messages to this installation.
func (c *Client) SubscribePush(ctx context.Context, token string, sub models.PushSubscription) error {
	body, err := json.Marshal(map[string]any{
		"endpoint": sub.Endpoint,
		"keys": map[string]string{
			"p256dh": sub.Keys.P256dh,
			"auth":   sub.Keys.Auth,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications/subscribe", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

// UnsubscribePush removes a subscription from the remote API by endpoint
// identity.
func (c *Client) UnsubscribePush(ctx context.Context, token, endpoint string) error {
	body, err := json.Marshal(map[string]string{"endpoint": endpoint})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/notifications/subscribe", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}
