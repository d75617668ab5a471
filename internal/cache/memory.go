package cache

import (
	"context"
	"sync"
	"time"

	"github.com/akl7777777/ippure-panel/internal/model"
)

type entry struct {
	data      *model.Report
	expiresAt time.Time
}

// Memory is a process-local TTL cache with a background sweeper.
type Memory struct {
	mu     sync.RWMutex
	items  map[string]*entry
	ttl    time.Duration
	stopCh chan struct{}
	once   sync.Once
}

func NewMemory(ttl time.Duration) *Memory {
	c := &Memory{
		items:  make(map[string]*entry),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

func (c *Memory) Get(_ context.Context, key string) (*model.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return cachedCopy(e.data), true
}

func (c *Memory) Set(_ context.Context, key string, r *model.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &entry{
		data:      r,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *Memory) Size(context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Memory) TTL() time.Duration { return c.ttl }

func (c *Memory) Backend() string { return "memory" }

func (c *Memory) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

func (c *Memory) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *Memory) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}
