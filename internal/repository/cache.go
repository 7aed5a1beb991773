package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/google/uuid"
)

type (
	// MemCache реализует LRU-кеш категорий с необязательным TTL.
	MemCache struct {
		entries  map[uuid.UUID]*list.Element
		lruList  *list.List
		mu       sync.Mutex
		maxItems int
		ttl      time.Duration
		now      func() time.Time
	}

	cacheEntry struct {
		key       uuid.UUID
		category  models.Category
		expiresAt time.Time
	}
)

func NewMemCache() *MemCache {
	return NewMemCacheWithConfig(1000, 0)
}

// NewMemCacheWithConfig создает кеш на maxItems записей; ttl == 0 отключает истечение.
func NewMemCacheWithConfig(maxItems int, ttl time.Duration) *MemCache {
	if maxItems <= 0 {
		maxItems = 1
	}
	return &MemCache{
		entries:  make(map[uuid.UUID]*list.Element),
		lruList:  list.New(),
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *MemCache) Save(category *models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, exists := c.entries[category.ID]; exists {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.category = *category
		entry.expiresAt = expiresAt
		return
	}

	if c.lruList.Len() >= c.maxItems {
		c.evictOldest()
	}

	elem := c.lruList.PushFront(&cacheEntry{
		key:       category.ID,
		category:  *category,
		expiresAt: expiresAt,
	})
	c.entries[category.ID] = elem
}

func (c *MemCache) Get(id uuid.UUID) (*models.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[id]
	if !exists {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.expired(entry) {
		c.remove(elem)
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	category := entry.category
	return &category, true
}

func (c *MemCache) Delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[id]; exists {
		c.remove(elem)
	}
}

// StartJanitor периодически удаляет истекшие записи до отмены ctx.
func (c *MemCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || c.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.purgeExpired()
			}
		}
	}()
}

func (c *MemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func (c *MemCache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.lruList.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*cacheEntry)) {
			c.remove(elem)
		}
		elem = prev
	}
}

func (c *MemCache) expired(entry *cacheEntry) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}

func (c *MemCache) evictOldest() {
	if elem := c.lruList.Back(); elem != nil {
		c.remove(elem)
	}
}

func (c *MemCache) remove(elem *list.Element) {
	c.lruList.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry).key)
}
