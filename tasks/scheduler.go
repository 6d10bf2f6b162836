package tasks

import (
	"context"
	"time"

	"go-asyncops/bus"
	"go-asyncops/logger"
	"go-asyncops/model"
	"go-asyncops/store"
)

// Scheduler runs the deferred creation protocol: Submit registers a
// pending task and returns at once; after the configured delay the
// article is actually created, an event goes out on the bus, and the
// task flips to done.
type Scheduler struct {
	registry *Registry
	store    store.Store
	bus      bus.Bus
	delay    time.Duration
}

func NewScheduler(registry *Registry, st store.Store, b bus.Bus, delay time.Duration) *Scheduler {
	return &Scheduler{
		registry: registry,
		store:    st,
		bus:      b,
		delay:    delay,
	}
}

// Submit never performs the creation inline and always succeeds.
func (s *Scheduler) Submit(draft model.ArticleDraft) string {
	task := s.registry.Add(draft)
	time.AfterFunc(s.delay, func() {
		s.run(task.ID)
	})
	logger.Debug("[scheduler] task %s registered, firing in %v", task.ID, s.delay)
	return task.ID
}

// Poll reports the task state. Callers must treat done as a signal to
// follow ResultID, not as payload delivery.
func (s *Scheduler) Poll(id string) (model.Task, error) {
	return s.registry.Get(id)
}

// run is the deferred action. A store failure leaves the task pending;
// the client only ever observes a task that never completes.
func (s *Scheduler) run(taskID string) {
	task, err := s.registry.Get(taskID)
	if err != nil || task.Status == model.StatusDone || task.Payload == nil {
		return
	}

	article, err := s.store.Insert(context.Background(), *task.Payload)
	if err != nil {
		logger.Error("[scheduler] task %s: failed to create article: %v", taskID, err)
		return
	}

	s.bus.Publish(model.Event{
		Kind:    model.EventArticleCreated,
		Article: article,
	})

	if s.registry.Complete(taskID, article.ID) {
		logger.Info("[scheduler] task %s done, created article %d", taskID, article.ID)
	}
}
