package tasks

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-asyncops/model"
)

var ErrTaskNotFound = errors.New("task not found")

// Registry owns the in-memory map of deferred creation tasks. Entries
// live for the process lifetime; there is no eviction.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*model.Task
}

func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*model.Task),
	}
}

// Add registers a new pending task under a fresh id and returns a copy.
func (r *Registry) Add(draft model.ArticleDraft) model.Task {
	task := &model.Task{
		ID:        uuid.New().String(),
		Status:    model.StatusPending,
		Payload:   &draft,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.tasks[task.ID] = task
	r.mu.Unlock()
	return *task
}

// Get returns a copy of the task, or ErrTaskNotFound.
func (r *Registry) Get(id string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// Complete transitions a task to done, points it at the created article
// and drops the retained payload. Returns false if the task is unknown
// or already done, so a duplicate deferred firing is a no-op.
func (r *Registry) Complete(id string, articleID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status == model.StatusDone {
		return false
	}
	task.Status = model.StatusDone
	task.ResultID = articleID
	task.Payload = nil
	return true
}
