package pipe

import (
	"context"
	"sync"
)

// BranchOptions configures Branch's per-subscriber backpressure behaviour.
type BranchOptions struct {
	// Capacity is the per-subscriber queue depth. 0 selects DefaultCapacity.
	Capacity int
	// LowWaterMark is the queue depth the producer waits for before resuming
	// after hitting Capacity on any subscriber. 0 selects Capacity/2.
	LowWaterMark int
}

// DefaultCapacity is used by Branch when BranchOptions.Capacity is 0.
const DefaultCapacity = 64

func (o BranchOptions) withDefaults() BranchOptions {
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.LowWaterMark <= 0 {
		o.LowWaterMark = o.Capacity / 2
	}
	return o
}

// subscriber is a bounded FIFO of items not yet drained by one consumer.
type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Item
	closed bool
}

func newSubscriber() *subscriber {
	s := &subscriber{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber) push(item Item) {
	s.mu.Lock()
	s.queue = append(s.queue, item)
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *subscriber) closeStream() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *subscriber) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// pop blocks until an item is available, the subscriber is closed, or ctx is
// cancelled.
func (s *subscriber) pop(ctx context.Context) (Item, bool, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-done:
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		if ctx.Err() != nil {
			return Item{}, false, ctx.Err()
		}
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return Item{}, false, nil
	}
	item := s.queue[0]
	s.queue = s.queue[1:]
	return item, true, nil
}

// Branch multicasts a single upstream Pipe to n independently paced
// consumers. The upstream producer blocks (suspends) whenever any subscriber
// queue reaches opts.Capacity, and resumes only once each such subscriber has
// drained below opts.LowWaterMark. This guarantees the slowest
// consumer governs overall throughput without letting a fast consumer's
// queue grow unboundedly while a slow sibling backs up.
//
// The returned pipes, and the background fan-out goroutine feeding them, are
// released by disposing every returned pipe.
func Branch(ctx context.Context, upstream *Pipe, n int, opts BranchOptions) []*Pipe {
	opts = opts.withDefaults()

	subs := make([]*subscriber, n)
	pipes := make([]*Pipe, n)
	for i := 0; i < n; i++ {
		subs[i] = newSubscriber()
		sub := subs[i]
		p := &Pipe{name: upstream.name, typ: upstream.typ}
		p.disposeFn = func() { sub.closeStream() }
		pipes[i] = p
	}

	// Replace the channel-backed Next behaviour with one that reads from this
	// subscriber's queue instead of a shared channel.
	for i, p := range pipes {
		sub := subs[i]
		p.ch = nil
		p.nextOverride = func(ctx context.Context) (any, bool, error) {
			item, ok, err := sub.pop(ctx)
			if !ok {
				return nil, false, err
			}
			return item.Value, true, item.Err
		}
	}

	go func() {
		for {
			// Wait until every subscriber has room, honoring the low-water
			// mark once any one of them has backed up to capacity.
			for _, sub := range subs {
				for sub.len() >= opts.Capacity {
					if ctx.Err() != nil {
						for _, s := range subs {
							s.closeStream()
						}
						return
					}
					waitUntilBelow(ctx, sub, opts.LowWaterMark)
				}
			}

			value, ok, err := upstream.Next(ctx)
			if !ok {
				for _, s := range subs {
					s.closeStream()
				}
				return
			}
			item := Item{Value: value, Err: err}
			for _, s := range subs {
				s.push(item)
			}
			if err != nil {
				for _, s := range subs {
					s.closeStream()
				}
				return
			}
		}
	}()

	return pipes
}

func waitUntilBelow(ctx context.Context, s *subscriber, mark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) >= mark && !s.closed {
		if ctx.Err() != nil {
			return
		}
		s.cond.Wait()
	}
}
