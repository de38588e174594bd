package dataset

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of samples a Cached reader keeps.
const DefaultCacheSize = 64

// Cached wraps a Reader and keeps the most recently materialized images and
// masks in a bounded LRU cache keyed by record index.
//
// The adapter itself never caches; Cached is the caller-side cache for
// workloads that revisit records. Cached values are shared between callers
// and must be treated as read-only.
type Cached struct {
	Reader
	images *lru.Cache[int, *image.NRGBA]
	masks  *lru.Cache[int, MaskStack]
}

// NewCached returns a caching view of r holding at most size entries of
// each kind. A non-positive size selects DefaultCacheSize.
func NewCached(r Reader, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[int, *image.NRGBA](size)
	if err != nil {
		return nil, err
	}
	masks, err := lru.New[int, MaskStack](size)
	if err != nil {
		return nil, err
	}
	return &Cached{Reader: r, images: images, masks: masks}, nil
}

// Image returns the cached image for i, loading it on a miss.
func (c *Cached) Image(i int) (*image.NRGBA, error) {
	if img, ok := c.images.Get(i); ok {
		return img, nil
	}
	img, err := c.Reader.Image(i)
	if err != nil {
		return nil, err
	}
	c.images.Add(i, img)
	return img, nil
}

// Mask returns the cached mask stack for i, loading it on a miss.
func (c *Cached) Mask(i int) (MaskStack, error) {
	if m, ok := c.masks.Get(i); ok {
		return m, nil
	}
	m, err := c.Reader.Mask(i)
	if err != nil {
		return MaskStack{}, err
	}
	c.masks.Add(i, m)
	return m, nil
}

// Len returns the number of cached images and masks.
func (c *Cached) Len() (int, int) {
	return c.images.Len(), c.masks.Len()
}

// Purge drops every cached sample.
func (c *Cached) Purge() {
	c.images.Purge()
	c.masks.Purge()
}

var _ Reader = (*Cached)(nil)
var _ Dataset = (*Adapter)(nil)
