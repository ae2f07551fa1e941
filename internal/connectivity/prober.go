package connectivity

import (
	"context"
	"net/http"
	"time"

	"github.com/studyquest/progress-engine/internal/logger"
)

// Prober polls a lightweight endpoint and drives a Monitor from the results.
// While offline it backs off exponentially up to MaxBackoff so a dead network
// is not hammered; one success resets the cadence to Interval.
type Prober struct {
	monitor  *Monitor
	url      string
	client   *http.Client
	interval time.Duration
}

// NewProber creates a prober for the given probe URL. A HEAD request that
// returns any HTTP response counts as online; only failing to get a response
// at all counts as offline.
func NewProber(monitor *Monitor, url string, interval time.Duration, timeout time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		monitor:  monitor,
		url:      url,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
	}
}

// Run probes until ctx is cancelled. Call in a goroutine.
func (p *Prober) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	backoff := p.interval
	consecutiveFailures := 0

	for {
		online := p.probe(ctx)
		p.monitor.SetOnline(online)

		if online {
			consecutiveFailures = 0
			backoff = p.interval
		} else {
			consecutiveFailures++
			// Only log first few failures and then periodically to avoid log spam
			if consecutiveFailures <= 3 || consecutiveFailures%100 == 0 {
				log.Warn("connectivity probe failed",
					"url", p.url,
					"backoff", backoff,
					"consecutive_failures", consecutiveFailures)
			}
			backoff = time.Duration(float64(backoff) * BackoffMultiplier)
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}
		}

		wait := p.interval
		if !online {
			wait = backoff
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

func (p *Prober) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
