package history

import (
	"context"
	"log"
	"time"
)

// Purger drops expired entries, e.g. the sqlite result cache.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Janitor deletes listings older than retention and purges the given caches
// once immediately and then every interval, until ctx is cancelled.
func Janitor(ctx context.Context, s *Store, interval, retention time.Duration, purgers ...Purger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("janitor: started, interval %v, retention %v", interval, retention)

	sweep(ctx, s, retention, purgers)
	for {
		select {
		case <-ctx.Done():
			log.Println("janitor: stopping")
			return
		case <-ticker.C:
			sweep(ctx, s, retention, purgers)
		}
	}
}

func sweep(ctx context.Context, s *Store, retention time.Duration, purgers []Purger) {
	n, err := s.Cleanup(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("janitor: cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("janitor: removed %d old listings", n)
	}

	for _, p := range purgers {
		n, err := p.Purge(ctx)
		if err != nil {
			log.Printf("janitor: purge failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("janitor: purged %d expired cache entries", n)
		}
	}
}
