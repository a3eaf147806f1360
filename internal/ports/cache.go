package ports

import (
	"context"
	"time"
)

// Cache is a generic string cache used for the cache-aside pattern
// around Facade.Snapshot(). Keys are opaque; values are whatever the
// caller marshaled them as.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
