package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller refreshes a recipient's unread count on a fixed interval until its
// context is cancelled. Failed refreshes keep the last known count.
type Poller struct {
	d         *Dispatcher
	recipient string
	interval  time.Duration
	onChange  func(int)

	mu    sync.RWMutex
	count int
	err   error
}

func NewPoller(d *Dispatcher, recipient string, interval time.Duration, onChange func(int)) *Poller {
	return &Poller{d: d, recipient: recipient, interval: interval, onChange: onChange}
}

// Count returns the last fetched unread count and the error of the last refresh.
func (p *Poller) Count() (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count, p.err
}

// Run polls immediately and then every interval. It returns when ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	n, err := p.d.UnreadCount(ctx, p.recipient)

	p.mu.Lock()
	p.err = err
	changed := err == nil && n != p.count
	if err == nil {
		p.count = n
	}
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			p.d.log.Warn("unread count refresh failed", zap.String("recipient", p.recipient), zap.Error(err))
		}
		return
	}
	if changed && p.onChange != nil {
		p.onChange(n)
	}
}
