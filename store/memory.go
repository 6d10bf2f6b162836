package store

import (
	"context"
	"sync"
	"time"

	"go-asyncops/model"
)

// MemoryStore keeps articles in insertion order behind a RWMutex. It is
// the default store when no DATABASE_URL is configured, and the one the
// unit tests run against.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []model.Article
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Insert(_ context.Context, draft model.ArticleDraft) (model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article := model.Article{
		ID:          s.nextID,
		Title:       draft.Title,
		Description: draft.Description,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.articles = append(s.articles, article)
	return article, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Article{}, ErrNotFound
}

func (s *MemoryStore) ListAfter(_ context.Context, after int64, limit int) ([]model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Article, 0, limit)
	for _, a := range s.articles {
		if a.ID <= after {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, offset, limit int) ([]model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.articles) {
		return []model.Article{}, nil
	}
	end := offset + limit
	if end > len(s.articles) {
		end = len(s.articles)
	}
	out := make([]model.Article, end-offset)
	copy(out, s.articles[offset:end])
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.articles {
		if a.ID == id {
			s.articles = append(s.articles[:i], s.articles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Replace(_ context.Context, id int64, draft model.ArticleDraft) (model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.articles {
		if a.ID == id {
			a.Title = draft.Title
			a.Description = draft.Description
			s.articles[i] = a
			return a, nil
		}
	}
	return model.Article{}, ErrNotFound
}
