package bus

import (
	"sync"

	"go-asyncops/logger"
	"go-asyncops/model"
)

const DefaultBuffer = 64

// MemoryBus fans events out over per-subscriber buffered channels. A
// subscriber whose queue is full loses the event rather than blocking
// the publisher.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[*memorySub]struct{}
	buffer int
}

func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{
		subs:   make(map[*memorySub]struct{}),
		buffer: buffer,
	}
}

func (b *MemoryBus) Publish(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			logger.Warn("[bus] subscriber queue full, dropping event for article %d", event.Article.ID)
		}
	}
}

func (b *MemoryBus) Subscribe() Subscription {
	sub := &memorySub{
		bus: b,
		ch:  make(chan model.Event, b.buffer),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

type memorySub struct {
	bus  *MemoryBus
	ch   chan model.Event
	once sync.Once
}

func (s *memorySub) Events() <-chan model.Event {
	return s.ch
}

func (s *memorySub) Close() {
	s.once.Do(func() {
		// Publish sends under the same lock, so closing here cannot
		// race with a send.
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
