package ws

import (
	"time"

	"tridify/internal/stats"
	"tridify/pkg/logger"
)

// Broadcaster periodically recomputes the stats snapshot and pushes it
// to every open connection. Each tick is synchronous: the next tick
// cannot start before the previous one finished.
type Broadcaster struct {
	hub      *Hub
	stats    *stats.Aggregator
	interval time.Duration
	logger   logger.Logger
	stop     chan struct{}
}

// NewBroadcaster creates a stopped Broadcaster with the given period.
func NewBroadcaster(hub *Hub, agg *stats.Aggregator, interval time.Duration, log logger.Logger) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		stats:    agg,
		interval: interval,
		logger:   log,
		stop:     make(chan struct{}),
	}
}

// Start launches the broadcast loop.
func (b *Broadcaster) Start() {
	ticker := time.NewTicker(b.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				b.tick()
			case <-b.stop:
				ticker.Stop()
				return
			}
		}
	}()
	b.logger.Info("Stats broadcaster started", map[string]interface{}{
		"interval": b.interval.String(),
	})
}

// Stop cancels the broadcast loop. Must be called before closing the
// hub during shutdown so no broadcast races the connection teardown.
func (b *Broadcaster) Stop() {
	close(b.stop)
	b.logger.Info("Stats broadcaster stopped", nil)
}

func (b *Broadcaster) tick() {
	snapshot := b.stats.Snapshot()
	b.hub.Broadcast(Event{
		Type:      EventStatsUpdate,
		Data:      snapshot,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
