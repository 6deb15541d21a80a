package gate

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	rateWindowShards     = 64
	defaultSweepInterval = 5 * time.Minute
)

// RateWindow tracks request arrival times per identity over a trailing
// window. State is process-local and lost on restart; that resets short-term
// rate accounting, nothing more.
type RateWindow struct {
	window time.Duration
	shards [rateWindowShards]rateShard
}

type rateShard struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewRateWindow(window time.Duration) *RateWindow {
	rw := &RateWindow{window: window}
	for i := range rw.shards {
		rw.shards[i].entries = make(map[string][]time.Time)
	}
	return rw
}

func (rw *RateWindow) shard(identity string) *rateShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return &rw.shards[h.Sum32()%rateWindowShards]
}

// RecordAndCount appends now to the identity's sequence, drops entries older
// than the window, and returns the resulting count including the new entry.
// Requests for different identities only contend when they share a shard.
func (rw *RateWindow) RecordAndCount(identity string, now time.Time) int {
	shard := rw.shard(identity)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	times := PruneWindow(shard.entries[identity], now, rw.window)
	times = append(times, now)
	shard.entries[identity] = times
	return len(times)
}

// Count reports the in-window count without recording a request.
func (rw *RateWindow) Count(identity string, now time.Time) int {
	shard := rw.shard(identity)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	within, _ := SplitWindow(shard.entries[identity], now, rw.window)
	return len(within)
}

// sweep removes identities whose every entry has aged out. Lazy pruning only
// runs for identities that keep sending; this bounds memory for the rest.
func (rw *RateWindow) sweep(now time.Time) int {
	removed := 0
	for i := range rw.shards {
		shard := &rw.shards[i]
		shard.mu.Lock()
		for identity, times := range shard.entries {
			if kept := PruneWindow(times, now, rw.window); len(kept) == 0 {
				delete(shard.entries, identity)
				removed++
			} else {
				shard.entries[identity] = kept
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// StartSweepRoutine evicts idle identities until the context is cancelled.
func (rw *RateWindow) StartSweepRoutine(ctx context.Context, interval time.Duration) {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rw.sweep(time.Now()); removed > 0 {
				log.Debug("Rate window sweep", "evicted_identities", removed)
			}
		}
	}
}
