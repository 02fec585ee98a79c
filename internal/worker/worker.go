// Package worker is the offline cache worker: it pre-caches the application
// shell, serves cached assets with network fallback, and renders push
// messages into notifications.
package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"storymap-go/internal/models"
)

// State of the worker lifecycle. A new version installs while the previous
// one keeps serving; activation prunes stale caches and takes over.
type State int

const (
	StateInstalling State = iota
	StateInstalled
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Cache is the versioned asset store the worker serves from. Implemented by
// store.RedisCache in production and by an in-memory map in tests.
type Cache interface {
	Get(ctx context.Context, version, url string) (models.CachedAsset, bool, error)
	Put(ctx context.Context, version, url string, asset models.CachedAsset) error
	PutAll(ctx context.Context, version string, assets map[string]models.CachedAsset) error
	Versions(ctx context.Context) ([]string, error)
	DeleteVersion(ctx context.Context, version string) error
}

// Config wires a worker to its cache, the upstream origin serving the shell
// assets, and the API namespace that must never be cached.
type Config struct {
	Cache    Cache
	Upstream string   // origin the shell assets are fetched from
	Version  string   // cache version tag, e.g. "storymap-v2"
	Manifest []string // asset paths cached at install time
	BasePath string   // app base path, e.g. "/"
	ShellDoc string   // document served to offline navigations
	// APIPrefix marks the remote API namespace. Responses under it are
	// volatile and authenticated, so they are never cached.
	APIPrefix string

	Client *http.Client
}

type Worker struct {
	cache     Cache
	upstream  string
	version   string
	manifest  []string
	basePath  string
	shellDoc  string
	apiPrefix string
	client    *http.Client

	mu    sync.Mutex
	state State
	ready chan struct{}
}

func New(cfg Config) *Worker {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/"
	}
	if cfg.ShellDoc == "" {
		cfg.ShellDoc = cfg.BasePath + "index.html"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/v1/"
	}

	return &Worker{
		cache:     cfg.Cache,
		upstream:  strings.TrimRight(cfg.Upstream, "/"),
		version:   cfg.Version,
		manifest:  cfg.Manifest,
		basePath:  cfg.BasePath,
		shellDoc:  cfg.ShellDoc,
		apiPrefix: cfg.APIPrefix,
		client:    cfg.Client,
		state:     StateInstalling,
		ready:     make(chan struct{}),
	}
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
	if s == StateActive {
		select {
		case <-w.ready:
		default:
			close(w.ready)
		}
	}
}

// Active reports whether the worker has taken control of request serving.
func (w *Worker) Active() bool {
	return w.State() == StateActive
}

// AwaitActive blocks until the worker has activated or the context is done.
func (w *Worker) AwaitActive(ctx context.Context) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Install fetches every manifest asset from upstream and commits them to the
// cache as one unit. Any failed asset fails the whole install and nothing is
// committed.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)

	staged := make(map[string]models.CachedAsset, len(w.manifest))
	for _, path := range w.manifest {
		asset, err := w.fetchAsset(ctx, path)
		if err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
		staged[path] = asset
	}

	if err := w.cache.PutAll(ctx, w.version, staged); err != nil {
		return fmt.Errorf("install commit: %w", err)
	}

	w.setState(StateInstalled)
	log.Printf("worker: installed %d shell assets into cache %s", len(staged), w.version)
	return nil
}

// Activate prunes every cache version that does not match the current tag
// and takes control.
func (w *Worker) Activate(ctx context.Context) error {
	w.setState(StateActivating)

	versions, err := w.cache.Versions(ctx)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	for _, v := range versions {
		if v == w.version {
			continue
		}
		if err := w.cache.DeleteVersion(ctx, v); err != nil {
			return fmt.Errorf("activate: delete cache %s: %w", v, err)
		}
		log.Printf("worker: deleted old cache %s", v)
	}

	w.setState(StateActive)
	return nil
}

func (w *Worker) fetchAsset(ctx context.Context, path string) (models.CachedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.upstream+path, nil)
	if err != nil {
		return models.CachedAsset{}, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return models.CachedAsset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.CachedAsset{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.CachedAsset{}, err
	}

	return models.CachedAsset{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
