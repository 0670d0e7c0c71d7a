// Package poller refreshes the selected account's messages on a fixed
// interval. At most one timer is live; starting a new one cancels the old.
package poller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 5 * time.Second

// Tick asks the owner to reload messages for AccountID. Generation identifies
// the timer that produced it; see Accept.
type Tick struct {
	AccountID  int64
	Generation uint64
}

// Poller is a single-slot ticker. Start and Stop are safe to call from the UI
// loop while onTick is blocked delivering into that same loop: neither waits
// for the old goroutine to exit.
type Poller struct {
	interval time.Duration
	onTick   func(Tick)
	logger   *slog.Logger

	mu        sync.Mutex
	gen       uint64
	accountID int64
	active    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func New(interval time.Duration, onTick func(Tick), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if onTick == nil {
		onTick = func(Tick) {}
	}
	return &Poller{interval: interval, onTick: onTick, logger: logger}
}

// Start cancels any live timer and starts one for accountID. It returns the
// generation of the new timer.
func (p *Poller) Start(accountID int64) uint64 {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.accountID = accountID
	p.active = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Debug("poller started", "account_id", accountID, "generation", gen, "interval", p.interval)
	go p.run(ctx, Tick{AccountID: accountID, Generation: gen})
	return gen
}

// Stop cancels the live timer, if any. Ticks already in flight are rejected
// by Accept from now on.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.gen++
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.logger.Debug("poller stopped")
}

// Close stops the timer and waits for every goroutine to exit. Call it only
// once nothing is left to receive from onTick.
func (p *Poller) Close() {
	p.Stop()
	p.wg.Wait()
}

// Accept reports whether t came from the live timer. Ticks from a cancelled
// timer that were already on their way are dropped by the caller.
func (p *Poller) Accept(t Tick) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active && t.Generation == p.gen && t.AccountID == p.accountID
}

// Current returns the account being polled.
func (p *Poller) Current() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accountID, p.active
}

func (p *Poller) Interval() time.Duration { return p.interval }

func (p *Poller) run(ctx context.Context, t Tick) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.onTick(t)
		case <-ctx.Done():
			return
		}
	}
}
