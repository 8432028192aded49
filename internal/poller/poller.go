package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"trackprogress/internal/progress"
)

type Calculator interface {
	Calculate(ctx context.Context) progress.Result
}

type Publisher interface {
	PublishProgress(res progress.Result, at time.Time) error
}

// Poller runs one progress cycle per interval and publishes every result.
type Poller struct {
	calc     Calculator
	pub      Publisher
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	last    progress.Status
	seen    bool
	started bool
}

func New(calc Calculator, pub Publisher, interval time.Duration) *Poller {
	return &Poller{calc: calc, pub: pub, interval: interval}
}

// Start launches the poll loop. A second call while running is a no-op.
func (p *Poller) Start(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.started = true
	p.wg.Add(1)

	log.Printf("polling progress every %s", p.interval)
	go func() {
		defer p.wg.Done()
		tick := time.NewTicker(p.interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				p.tick(ctx, now)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.started = false
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) tick(ctx context.Context, now time.Time) progress.Result {
	res := p.calc.Calculate(ctx)
	if !p.seen || res.Status != p.last {
		log.Printf("progress status: %s", res.Status)
		p.last, p.seen = res.Status, true
	}
	if p.pub != nil {
		if err := p.pub.PublishProgress(res, now); err != nil {
			log.Printf("publish progress error: %v", err)
		}
	}
	return res
}
