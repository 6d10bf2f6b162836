package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-asyncops/model"
)

func event(id int64) model.Event {
	return model.Event{
		Kind:    model.EventArticleCreated,
		Article: model.Article{ID: id},
	}
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	b := NewMemoryBus(1)

	done := make(chan struct{})
	go func() {
		b.Publish(event(1))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with zero subscribers")
	}
}

func TestLateSubscriberSeesNoReplay(t *testing.T) {
	b := NewMemoryBus(4)

	b.Publish(event(1))

	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(event(2))

	first := <-sub.Events()
	assert.Equal(t, int64(2), first.Article.ID)

	select {
	case e := <-sub.Events():
		t.Fatalf("unexpected replayed event for article %d", e.Article.ID)
	default:
	}
}

func TestEachSubscriberReceivesEveryEventInOrder(t *testing.T) {
	b := NewMemoryBus(8)

	s1 := b.Subscribe()
	defer s1.Close()
	s2 := b.Subscribe()
	defer s2.Close()

	for i := int64(1); i <= 5; i++ {
		b.Publish(event(i))
	}

	for _, sub := range []Subscription{s1, s2} {
		for i := int64(1); i <= 5; i++ {
			e := <-sub.Events()
			require.Equal(t, i, e.Article.ID)
		}
	}
}

func TestFullSubscriberQueueDropsInsteadOfBlocking(t *testing.T) {
	b := NewMemoryBus(2)

	sub := b.Subscribe()
	defer sub.Close()

	for i := int64(1); i <= 5; i++ {
		b.Publish(event(i))
	}

	// Only the first two fit; the overflow was dropped.
	assert.Equal(t, int64(1), (<-sub.Events()).Article.ID)
	assert.Equal(t, int64(2), (<-sub.Events()).Article.ID)
	select {
	case e := <-sub.Events():
		t.Fatalf("expected overflow drop, got article %d", e.Article.ID)
	default:
	}
}

func TestCloseDetachesAndClosesChannel(t *testing.T) {
	b := NewMemoryBus(2)

	sub := b.Subscribe()
	sub.Close()
	sub.Close() // idempotent

	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Publishing after close must not panic.
	b.Publish(event(1))
}
