package gallery

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
)

// FacesPrefix is the blob store prefix holding enrolled reference images.
const FacesPrefix = "faces/"

// BlobStore is the slice of the blob store the gallery needs.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// Extractor produces one embedding per face found in an image.
type Extractor interface {
	Extract(imageData []byte) ([][]float32, error)
}

// Cache holds the known (label, embedding) pairs the matcher scans.
//
// Mutations replace, never modify in place: a writer rebuilds the snapshot
// slice under the write lock, so a reader holding a snapshot never observes
// a half-written entry. Readers never block each other.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]models.GalleryEntry
	snapshot []models.GalleryEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]models.GalleryEntry)}
}

// Load populates the cache from the blob store: list every gallery object,
// fetch it, run the extractor, and retain entries whose extraction succeeded
// with exactly one face. Failures are logged and skipped; a partial load is
// served as-is rather than failing the process.
//
// Fetch + extraction per entry is I/O-heavy, so it fans out across `workers`
// goroutines.
func (c *Cache) Load(ctx context.Context, store BlobStore, extractor Extractor, workers int) error {
	keys, err := store.ListObjects(ctx, FacesPrefix)
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		sem <- struct{}{}
		go func(key string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := store.GetObject(ctx, key)
			if err != nil {
				slog.Warn("gallery load: fetch failed", "key", key, "error", err)
				return
			}

			embeddings, err := extractor.Extract(data)
			if err != nil {
				slog.Warn("gallery load: extraction failed", "key", key, "error", err)
				return
			}
			if len(embeddings) != 1 {
				slog.Warn("gallery load: skipping image", "key", key, "faces", len(embeddings))
				return
			}

			c.Add(models.GalleryEntry{
				Label:     LabelFromKey(key),
				SourceKey: key,
				Embedding: embeddings[0],
			})
		}(key)
	}

	wg.Wait()
	slog.Info("gallery cache loaded", "entries", c.Len(), "objects", len(keys))
	return nil
}

// Add inserts or replaces the entry for its label.
func (c *Cache) Add(entry models.GalleryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Label] = entry
	c.rebuild()
}

// Remove deletes the entry for label, reporting whether it existed.
// The removal is visible to the very next Snapshot call.
func (c *Cache) Remove(label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[label]; !ok {
		return false
	}
	delete(c.entries, label)
	c.rebuild()
	return true
}

// Has reports whether an entry exists for label.
func (c *Cache) Has(label string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[label]
	return ok
}

// Snapshot returns a read-consistent view for the matcher. The returned
// slice is never mutated after publication; callers must not modify it.
func (c *Cache) Snapshot() []models.GalleryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// rebuild publishes a fresh snapshot, ordered by label so matcher
// tie-breaking stays deterministic across rebuilds. Caller holds the
// write lock.
func (c *Cache) rebuild() {
	snap := make([]models.GalleryEntry, 0, len(c.entries))
	for _, e := range c.entries {
		snap = append(snap, e)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].Label < snap[j].Label })
	c.snapshot = snap
	observability.GallerySize.Set(float64(len(snap)))
}

// LabelFromKey derives the gallery label from a storage key, e.g.
// "faces/alice.jpg" → "alice.jpg".
func LabelFromKey(key string) string {
	return strings.TrimPrefix(key, FacesPrefix)
}
