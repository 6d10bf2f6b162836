package bus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"go-asyncops/logger"
	"go-asyncops/model"
)

const channelKey = "asyncops:articles"

// RedisBus carries the same semantics as MemoryBus over Redis pub/sub:
// no replay for late subscribers, messages with zero subscribers are
// dropped, and each subscriber sees events in publish order. Useful when
// the delivery worker runs in a different process than the API.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(ctx context.Context, addr string) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{client: client}, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

func (b *RedisBus) Publish(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("[bus] failed to marshal event for article %d: %v", event.Article.ID, err)
		return
	}
	if err := b.client.Publish(context.Background(), channelKey, data).Err(); err != nil {
		logger.Error("[bus] failed to publish event for article %d: %v", event.Article.ID, err)
	}
}

func (b *RedisBus) Subscribe() Subscription {
	ps := b.client.Subscribe(context.Background(), channelKey)
	sub := &redisSub{
		ps: ps,
		ch: make(chan model.Event),
	}
	go sub.pump()
	return sub
}

type redisSub struct {
	ps *redis.PubSub
	ch chan model.Event
}

func (s *redisSub) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		var event model.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Error("[bus] failed to unmarshal event: %v", err)
			continue
		}
		s.ch <- event
	}
}

func (s *redisSub) Events() <-chan model.Event {
	return s.ch
}

func (s *redisSub) Close() {
	// Closing the PubSub closes its channel, which ends pump and
	// closes s.ch.
	if err := s.ps.Close(); err != nil {
		logger.Error("[bus] failed to close subscription: %v", err)
	}
}
