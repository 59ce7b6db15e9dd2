package cache

import (
	"context"
	"log"
	"time"
)

// RunPeriodicRefresh refreshes the cache on a fixed interval until ctx
// is cancelled. It sleeps first, then refreshes, so startup (which has
// just loaded the initial snapshot) is not followed by an immediate
// second load. Refresh errors are logged; the stale snapshot keeps
// serving. The caller must wait for this function to return during
// shutdown so a cancel never races an in-flight swap.
func RunPeriodicRefresh(ctx context.Context, c *Cache, interval time.Duration) {
	log.Printf("cache: periodic refresh every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("cache: periodic refresh stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					log.Printf("cache: periodic refresh stopped")
					return
				}
				log.Printf("cache: periodic refresh failed, serving stale snapshot: %v", err)
			}
		}
	}
}
