// Package events carries job notifications from worker goroutines to
// consumers. Each subscription is an unbounded FIFO; publishing never
// blocks on a slow consumer.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// DefaultPollInterval is how often polling consumers drain their queue.
const DefaultPollInterval = 100 * time.Millisecond

// Channel fans events out to every subscription in publish order.
type Channel struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	now    func() time.Time
}

// NewChannel creates an open channel with no subscribers.
func NewChannel() *Channel {
	return &Channel{
		subs: make(map[*Subscription]struct{}),
		now:  time.Now,
	}
}

// Publish appends ev to every subscription. Events published after Close
// are dropped.
func (c *Channel) Publish(ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = c.now()
	}
	for sub := range c.subs {
		sub.push(ev)
	}
}

// Subscribe registers a new subscription. It receives only events
// published after this call.
func (c *Channel) Subscribe() *Subscription {
	sub := &Subscription{
		channel: c,
		notify:  make(chan struct{}, 1),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		sub.closed = true
		close(sub.notify)
		return sub
	}
	c.subs[sub] = struct{}{}
	return sub
}

// Close detaches all subscriptions. Their pending events remain drainable.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.close()
	}
	c.subs = nil
}

func (c *Channel) remove(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, sub)
}

// Subscription is one consumer's queue.
type Subscription struct {
	channel *Channel

	mu     sync.Mutex
	queue  []domain.Event
	closed bool
	notify chan struct{}
}

func (s *Subscription) push(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, ev)

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	select {
	case <-s.notify:
	default:
	}
	close(s.notify)
}

// Drain removes and returns all pending events in publish order.
func (s *Subscription) Drain() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	out := s.queue
	s.queue = nil
	return out
}

// Len returns the number of pending events.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Notify returns a channel signalled after new events arrive. It is closed
// when the subscription is closed. Push-based consumers select on it and
// then call Drain.
func (s *Subscription) Notify() <-chan struct{} {
	return s.notify
}

// Poll drains the queue every interval and passes non-empty batches to fn
// until ctx is done, fn returns false, or the subscription closes. A final
// drain runs on close and on cancellation so no event is lost.
func (s *Subscription) Poll(ctx context.Context, interval time.Duration, fn func([]domain.Event) bool) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if batch := s.Drain(); len(batch) > 0 {
				fn(batch)
			}
			return ctx.Err()
		case <-ticker.C:
			if batch := s.Drain(); len(batch) > 0 && !fn(batch) {
				return nil
			}
			if s.isClosed() {
				if batch := s.Drain(); len(batch) > 0 {
					fn(batch)
				}
				return nil
			}
		}
	}
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops delivery to this subscription.
func (s *Subscription) Close() {
	if s.channel != nil {
		s.channel.remove(s)
	}
	s.close()
}
