package worker

import (
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storymap-go/internal/models"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymap_cache_hits_total",
		Help: "Requests served from the offline shell cache.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymap_cache_misses_total",
		Help: "Requests that went to the network.",
	})
	shellFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymap_shell_fallbacks_total",
		Help: "Offline navigations answered with the cached shell document.",
	})
)

// ServeHTTP intercepts a request the way the worker sits between page and
// network: cache first, then upstream. Successful non-API responses are
// cached for next time; a failed navigation falls back to the cached shell
// document, any other failure propagates.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := r.URL.Path

	if asset, ok, err := w.cache.Get(ctx, w.version, path); err == nil && ok {
		cacheHits.Inc()
		writeAsset(rw, asset)
		return
	} else if err != nil {
		log.Printf("worker: cache lookup failed for %s: %v", path, err)
	}
	cacheMisses.Inc()

	asset, err := w.fetchAsset(ctx, path)
	if err != nil {
		if isNavigation(r) {
			if shell, ok, cerr := w.cache.Get(ctx, w.version, w.shellDoc); cerr == nil && ok {
				shellFallbacks.Inc()
				writeAsset(rw, shell)
				return
			}
		}
		http.Error(rw, "Upstream unavailable", http.StatusBadGateway)
		return
	}

	if !strings.HasPrefix(path, w.apiPrefix) {
		if err := w.cache.Put(ctx, w.version, path, asset); err != nil {
			log.Printf("worker: failed to cache %s: %v", path, err)
		}
	}

	writeAsset(rw, asset)
}

// isNavigation reports whether the request loads a document, mirroring the
// destination check a fetch handler would make.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Dest") == "document" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeAsset(rw http.ResponseWriter, asset models.CachedAsset) {
	if asset.ContentType != "" {
		rw.Header().Set("Content-Type", asset.ContentType)
	}
	status := asset.Status
	if status == 0 {
		status = http.StatusOK
	}
	rw.WriteHeader(status)
	_, _ = rw.Write(asset.Body)
}
