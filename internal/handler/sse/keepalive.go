package sse

import (
	"log/slog"
	"sync"
	"time"
)

// Pinger writes one keep-alive comment
type Pinger interface {
	WriteKeepAlive() error
}

// Heartbeat pings a stream on a fixed interval. It ends on Stop or on the
// first failed write, which usually means the client went away.
type Heartbeat struct {
	interval time.Duration
	quit     chan struct{}
	once     sync.Once
	dead     chan struct{}
}

func NewHeartbeat(interval time.Duration) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		quit:     make(chan struct{}),
		dead:     make(chan struct{}),
	}
}

// Run starts pinging in the background
func (h *Heartbeat) Run(p Pinger, logger *slog.Logger) {
	go func() {
		defer close(h.dead)

		t := time.NewTicker(h.interval)
		defer t.Stop()

		for {
			select {
			case <-h.quit:
				return
			case <-t.C:
			}
			if err := p.WriteKeepAlive(); err != nil {
				logger.Debug("heartbeat write failed", "error", err)
				return
			}
		}
	}()
}

// Dead closes once pinging has ended
func (h *Heartbeat) Dead() <-chan struct{} { return h.dead }

// Stop may be called any number of times
func (h *Heartbeat) Stop() {
	h.once.Do(func() { close(h.quit) })
}
