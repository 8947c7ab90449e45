package gallery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) PutObject(_ context.Context, key string, data []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) GetObject(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) ListObjects(_ context.Context, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// perImageExtractor answers per image content; unknown content errors.
type perImageExtractor struct {
	byContent map[string][][]float32
}

func (f *perImageExtractor) Extract(imageData []byte) ([][]float32, error) {
	embs, ok := f.byContent[string(imageData)]
	if !ok {
		return nil, errors.New("corrupt image")
	}
	return embs, nil
}

func TestCacheAddReplaceRemove(t *testing.T) {
	c := NewCache()

	c.Add(models.GalleryEntry{Label: "alice.jpg", Embedding: []float32{1}})
	c.Add(models.GalleryEntry{Label: "bob.jpg", Embedding: []float32{2}})
	assert.Equal(t, 2, c.Len())

	// re-enrollment replaces, never duplicates
	c.Add(models.GalleryEntry{Label: "alice.jpg", Embedding: []float32{3}})
	assert.Equal(t, 2, c.Len())

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alice.jpg", snap[0].Label)
	assert.Equal(t, []float32{3}, snap[0].Embedding)

	assert.True(t, c.Remove("alice.jpg"))
	assert.False(t, c.Remove("alice.jpg"))
	assert.False(t, c.Has("alice.jpg"))
	assert.Equal(t, 1, c.Len())
}

func TestSnapshotIsStableUnderMutation(t *testing.T) {
	c := NewCache()
	c.Add(models.GalleryEntry{Label: "alice.jpg", Embedding: []float32{1}})

	snap := c.Snapshot()
	c.Remove("alice.jpg")
	c.Add(models.GalleryEntry{Label: "bob.jpg", Embedding: []float32{2}})

	// the earlier snapshot is untouched by later writes
	require.Len(t, snap, 1)
	assert.Equal(t, "alice.jpg", snap[0].Label)

	fresh := c.Snapshot()
	require.Len(t, fresh, 1)
	assert.Equal(t, "bob.jpg", fresh[0].Label)
}

func TestSnapshotOrderedByLabel(t *testing.T) {
	c := NewCache()
	c.Add(models.GalleryEntry{Label: "zoe.jpg"})
	c.Add(models.GalleryEntry{Label: "amy.jpg"})
	c.Add(models.GalleryEntry{Label: "mia.jpg"})

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "amy.jpg", snap[0].Label)
	assert.Equal(t, "mia.jpg", snap[1].Label)
	assert.Equal(t, "zoe.jpg", snap[2].Label)
}

func TestCacheConcurrentReadersAndWriters(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			label := string(rune('a'+i)) + ".jpg"
			for j := 0; j < 100; j++ {
				c.Add(models.GalleryEntry{Label: label, Embedding: []float32{float32(j)}})
				c.Remove(label)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for _, e := range c.Snapshot() {
					// an entry is never half-written
					assert.NotEmpty(t, e.Label)
				}
			}
		}()
	}
	wg.Wait()
}

func TestLoadSkipsFailuresAndKeepsRest(t *testing.T) {
	store := newFakeStore()
	store.objects[FacesPrefix+"alice.jpg"] = []byte("alice")
	store.objects[FacesPrefix+"bob.jpg"] = []byte("bob")
	store.objects[FacesPrefix+"corrupt.jpg"] = []byte("garbage")
	store.objects[FacesPrefix+"crowd.jpg"] = []byte("crowd")
	store.objects[FacesPrefix+"empty.jpg"] = []byte("empty")

	extractor := &perImageExtractor{byContent: map[string][][]float32{
		"alice": {{1, 0}},
		"bob":   {{0, 1}},
		"crowd": {{1, 1}, {2, 2}}, // two faces: skipped
		"empty": {},               // no face: skipped
	}}

	c := NewCache()
	require.NoError(t, c.Load(context.Background(), store, extractor, 3))

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("alice.jpg"))
	assert.True(t, c.Has("bob.jpg"))
	assert.False(t, c.Has("corrupt.jpg"))
}

func TestLoadPropagatesListError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("bucket gone")

	err := NewCache().Load(context.Background(), store, &perImageExtractor{}, 2)
	require.Error(t, err)
}

func TestLabelFromKey(t *testing.T) {
	assert.Equal(t, "alice.jpg", LabelFromKey("faces/alice.jpg"))
	assert.Equal(t, "alice.jpg", LabelFromKey("alice.jpg"))
}
