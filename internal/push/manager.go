// Package push orchestrates the three-way handshake between platform
// capability, the push service subscription and remote API registration.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"time"

	"storymap-go/internal/models"
	"storymap-go/internal/store"
)

// Failure taxonomy of a subscribe call. Each precondition gets its own
// sentinel so callers can show a precise message instead of a generic one.
var (
	ErrUnsupported         = errors.New("push is not supported on this platform")
	ErrBlocked             = errors.New("push notifications are blocked")
	ErrInsecureContext     = errors.New("push requires a secure context")
	ErrWorkerNotReady      = errors.New("offline worker is not ready")
	ErrPermissionDenied    = errors.New("notification permission was denied")
	ErrPermissionDismissed = errors.New("notification permission prompt was dismissed")
	ErrInvalidServerKey    = errors.New("invalid application server key")
)

// Registrar is the remote API leg of the handshake. Both calls are
// best-effort from the manager's point of view.
type Registrar interface {
	SubscribePush(ctx context.Context, token string, sub models.PushSubscription) error
	UnsubscribePush(ctx context.Context, token, endpoint string) error
}

// WorkerStates reports whether the offline worker has activated yet.
type WorkerStates interface {
	Active() bool
}

// Config for a Manager. Settings and Registrar may fail without affecting
// the subscription itself.
type Config struct {
	Capability Capability
	Platform   Platform
	Registrar  Registrar
	Settings   store.SettingStore
	Worker     WorkerStates

	// Origin the app is served from; push requires a secure context.
	Origin string
	// ServerKey is the VAPID application server key, URL-safe base64.
	ServerKey string
	// Token supplies the current bearer token for API registration.
	Token func(ctx context.Context) string

	// Worker readiness is polled WaitAttempts times with a fixed WaitDelay
	// between attempts (defaults bound the wait to 10s).
	WaitAttempts int
	WaitDelay    time.Duration
}

type Manager struct {
	cfg Config
}

func NewManager(cfg Config) *Manager {
	if cfg.WaitAttempts == 0 {
		cfg.WaitAttempts = 20
	}
	if cfg.WaitDelay == 0 {
		cfg.WaitDelay = 500 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// readyResult is the typed outcome of the bounded readiness wait.
type readyResult int

const (
	ready readyResult = iota
	timedOut
)

// waitReady polls check with a fixed delay between attempts. It never waits
// indefinitely: after the attempt budget it reports timedOut.
func waitReady(ctx context.Context, check func() bool, attempts int, delay time.Duration) readyResult {
	for i := 0; i < attempts; i++ {
		if check() {
			return ready
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return timedOut
		}
	}
	return timedOut
}

// Subscribe runs the precondition ladder and creates a subscription. It is
// idempotent: an existing subscription is returned unchanged. The local
// mirror write and the remote registration are fire-and-log; their failures
// never unwind the subscription.
func (m *Manager) Subscribe(ctx context.Context) (*models.PushSubscription, error) {
	switch m.cfg.Capability {
	case Unsupported:
		return nil, ErrUnsupported
	case Blocked:
		return nil, ErrBlocked
	}

	if !isSecureOrigin(m.cfg.Origin) {
		return nil, ErrInsecureContext
	}

	if m.cfg.Worker != nil {
		if waitReady(ctx, m.cfg.Worker.Active, m.cfg.WaitAttempts, m.cfg.WaitDelay) == timedOut {
			return nil, ErrWorkerNotReady
		}
	}

	if existing, err := m.cfg.Platform.Subscription(ctx); err == nil && existing != nil {
		return existing, nil
	}

	permission, err := m.cfg.Platform.RequestPermission(ctx)
	if err != nil {
		return nil, err
	}
	switch permission {
	case PermissionDenied:
		return nil, ErrPermissionDenied
	case PermissionDismissed:
		return nil, ErrPermissionDismissed
	}

	serverKey, err := DecodeServerKey(m.cfg.ServerKey)
	if err != nil {
		return nil, err
	}

	sub, err := m.cfg.Platform.Subscribe(ctx, serverKey)
	if err != nil {
		return nil, err
	}

	m.mirrorSubscription(ctx, sub)
	m.registerSubscription(ctx, sub)

	return sub, nil
}

// mirrorSubscription persists the serialized subscription for fast status
// display. Best-effort: a store failure is logged and ignored.
func (m *Manager) mirrorSubscription(ctx context.Context, sub *models.PushSubscription) {
	if m.cfg.Settings == nil {
		return
	}
	data, err := json.Marshal(sub)
	if err == nil {
		err = m.cfg.Settings.SetSetting(ctx, store.SettingPushSubscription, string(data))
	}
	if err != nil {
		log.Printf("push: failed to mirror subscription locally: %v", err)
	}
}

// registerSubscription tells the remote API about the subscription.
// Best-effort: the subscription stays valid even when registration fails.
func (m *Manager) registerSubscription(ctx context.Context, sub *models.PushSubscription) {
	if m.cfg.Registrar == nil {
		return
	}
	token := ""
	if m.cfg.Token != nil {
		token = m.cfg.Token(ctx)
	}
	if err := m.cfg.Registrar.SubscribePush(ctx, token, *sub); err != nil {
		log.Printf("push: failed to register subscription with remote API: %v", err)
	}
}

// Unsubscribe removes the current subscription. With none present it is a
// no-op. The remote API is notified best-effort first, then the platform
// subscription is cancelled and the local mirror cleared unconditionally.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	sub, err := m.cfg.Platform.Subscription(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	if m.cfg.Registrar != nil {
		token := ""
		if m.cfg.Token != nil {
			token = m.cfg.Token(ctx)
		}
		if err := m.cfg.Registrar.UnsubscribePush(ctx, token, sub.Endpoint); err != nil {
			log.Printf("push: failed to notify remote API of unsubscribe: %v", err)
		}
	}

	if err := m.cfg.Platform.Unsubscribe(ctx, sub.Endpoint); err != nil {
		return err
	}

	if m.cfg.Settings != nil {
		if err := m.cfg.Settings.DeleteSetting(ctx, store.SettingPushSubscription); err != nil {
			log.Printf("push: failed to clear local subscription mirror: %v", err)
		}
	}
	return nil
}

// IsSubscribed is a pure read of subscription presence. It never fails: an
// internal error reads as false.
func (m *Manager) IsSubscribed(ctx context.Context) bool {
	sub, err := m.cfg.Platform.Subscription(ctx)
	if err != nil {
		return false
	}
	return sub != nil
}

func isSecureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	return u.Scheme == "http" && (host == "localhost" || host == "127.0.0.1")
}
