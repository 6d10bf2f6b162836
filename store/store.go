package store

import (
	"context"
	"errors"

	"go-asyncops/model"
)

// ErrNotFound is returned for point lookups, deletes and replaces that
// reference an article id absent from the store.
var ErrNotFound = errors.New("article not found")

// Store is the ordered document store holding created articles. Ids are
// assigned at insert time and increase monotonically, which is what makes
// them usable as keyset cursors.
type Store interface {
	Insert(ctx context.Context, draft model.ArticleDraft) (model.Article, error)
	Get(ctx context.Context, id int64) (model.Article, error)

	// ListAfter returns up to limit articles with id strictly greater
	// than after, ordered by id ascending. after = 0 means from the
	// beginning.
	ListAfter(ctx context.Context, after int64, limit int) ([]model.Article, error)

	// List returns an offset/limit window, ordered by id ascending.
	List(ctx context.Context, offset, limit int) ([]model.Article, error)

	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
	Replace(ctx context.Context, id int64, draft model.ArticleDraft) (model.Article, error)
}
