package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"storymap-go/internal/models"
)

// Capability is the push support level of the running platform, probed once
// at startup and threaded through instead of re-checked ad hoc.
type Capability int

const (
	Available Capability = iota
	Unsupported
	Blocked
)

func (c Capability) String() string {
	switch c {
	case Available:
		return "available"
	case Unsupported:
		return "unsupported"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Permission is the user's answer to a notification prompt. Denied and
// dismissed are distinct: both end the current call, but only denied means
// the user said no.
type Permission int

const (
	PermissionGranted Permission = iota
	PermissionDenied
	PermissionDismissed
)

// Platform is the push service boundary. The browser owns subscription
// identity; this interface stands in for it.
type Platform interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Subscription(ctx context.Context) (*models.PushSubscription, error)
	Subscribe(ctx context.Context, serverKey []byte) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context, endpoint string) error
}

// ProbeCapability decides the platform's push support once. A missing push
// service URL means the feature is absent; an explicit opt-out blocks it.
func ProbeCapability(pushServiceURL string, notificationsEnabled bool) Capability {
	if pushServiceURL == "" {
		return Unsupported
	}
	if !notificationsEnabled {
		return Blocked
	}
	return Available
}

// LocalPlatform issues subscriptions the way a push service would: a fresh
// P-256 key pair, a random auth secret and an endpoint under the service
// URL. At most one subscription is active at a time.
type LocalPlatform struct {
	serviceURL string
	permission Permission

	mu      sync.Mutex
	current *models.PushSubscription
}

func NewLocalPlatform(serviceURL string, permission Permission) *LocalPlatform {
	return &LocalPlatform{serviceURL: serviceURL, permission: permission}
}

func (p *LocalPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	return p.permission, nil
}

func (p *LocalPlatform) Subscription(ctx context.Context) (*models.PushSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	sub := *p.current
	return &sub, nil
}

func (p *LocalPlatform) Subscribe(ctx context.Context, serverKey []byte) (*models.PushSubscription, error) {
	if len(serverKey) != serverKeyLength {
		return nil, ErrInvalidServerKey
	}

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate subscription key: %w", err)
	}

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}

	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("generate endpoint token: %w", err)
	}

	sub := &models.PushSubscription{
		Endpoint: fmt.Sprintf("%s/%s", p.serviceURL, hex.EncodeToString(token)),
		Keys: models.SubscriptionKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
		CreatedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	p.current = sub
	p.mu.Unlock()

	out := *sub
	return &out, nil
}

func (p *LocalPlatform) Unsubscribe(ctx context.Context, endpoint string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.Endpoint == endpoint {
		p.current = nil
	}
	return nil
}
