package cache

import (
	"context"
	"sync"
	"time"

	"lucky-spin/internal/models"
)

type SegmentLoader func(context.Context) ([]models.Segment, error)

// SegmentCache keeps the wheel's prize table warm between admin edits so a
// spin does not hit the database for a table that rarely changes.
type SegmentCache struct {
	mu       sync.RWMutex
	value    []models.Segment
	expires  time.Time
	ttl      time.Duration
	loadFunc SegmentLoader
}

func NewSegmentCache(ttl time.Duration, loader SegmentLoader) *SegmentCache {
	return &SegmentCache{
		ttl:      ttl,
		loadFunc: loader,
	}
}

func (c *SegmentCache) Get(ctx context.Context) ([]models.Segment, error) {
	c.mu.RLock()
	if time.Now().Before(c.expires) && c.value != nil {
		defer c.mu.RUnlock()
		return c.value, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().Before(c.expires) && c.value != nil {
		return c.value, nil
	}
	segments, err := c.loadFunc(ctx)
	if err != nil {
		return nil, err
	}
	c.value = segments
	c.expires = time.Now().Add(c.ttl)
	return segments, nil
}

func (c *SegmentCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.expires = time.Time{}
}
