package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go-asyncops/bus"
	"go-asyncops/logger"
	"go-asyncops/model"
)

// Worker subscribes once to the bus and relays every event to the
// configured sink, one blocking POST at a time. Delivery is strictly
// sequential so the sink sees events in publish order; a slow sink
// backpressures the whole pipeline. A failed delivery is logged and the
// event is lost: at most one attempt, no retry, no re-queue.
type Worker struct {
	bus    bus.Bus
	url    string
	client *http.Client
}

func New(b bus.Bus, url string) *Worker {
	return &Worker{
		bus: b,
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start launches the consumer loop. Cancelling ctx stops it; the
// subscription is closed on the way out.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	sub := w.bus.Subscribe()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				logger.Info("[webhook] worker shutting down")
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				w.deliver(ctx, event)
			}
		}
	}()
}

func (w *Worker) deliver(ctx context.Context, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("[webhook] failed to marshal event for article %d: %v", event.Article.ID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		logger.Error("[webhook] failed to build request for article %d: %v", event.Article.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		logger.Error("[webhook] delivery failed for article %d: %v", event.Article.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("[webhook] sink returned %d for article %d", resp.StatusCode, event.Article.ID)
		return
	}
	logger.Debug("[webhook] delivered article %d", event.Article.ID)
}
