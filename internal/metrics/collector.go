package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/onnwee/force-layout/internal/cache"
)

// Collector periodically copies result cache statistics into gauges.
type Collector struct {
	cache    cache.Cache
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(c cache.Cache, interval time.Duration) *Collector {
	return &Collector{
		cache:    c,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the collection loop until ctx is done or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector. It is safe to call more than once.
func (c *Collector) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Collector) collect() {
	s := c.cache.Stats()
	LayoutCacheItems.Set(float64(s.Items))
	LayoutCacheBytes.Set(float64(s.Size))
}
