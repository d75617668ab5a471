package cache

import (
	"context"
	"time"

	"github.com/akl7777777/ippure-panel/internal/model"
)

// Cache holds merged reports for a short TTL. Get returns a copy marked Cached.
type Cache interface {
	Get(ctx context.Context, key string) (*model.Report, bool)
	Set(ctx context.Context, key string, r *model.Report)
	Size(ctx context.Context) int
	TTL() time.Duration
	Backend() string
	Close() error
}

func cachedCopy(r *model.Report) *model.Report {
	out := *r
	out.Cached = true
	return &out
}
