package models

import "time"

// PushSubscription mirrors the credential issued by the push service.
// Endpoint identity is what the remote API keys removals on.
type PushSubscription struct {
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	CreatedAt time.Time        `json:"createdAt,omitzero"`
}

// SubscriptionKeys carries the encryption material of a subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Notification is the rendered form of a push message: what gets shown to
// the user. Repeated notifications sharing a tag replace each other instead
// of stacking.
type Notification struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Tag   string         `json:"tag"`
	Data  map[string]any `json:"data,omitempty"`
}
