package models

// CachedAsset is one entry of the offline shell cache: a snapshot of an
// upstream response, replayed byte-for-byte on a cache hit.
type CachedAsset struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}
