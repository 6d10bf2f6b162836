// Package page turns store range queries into cursor-delimited pages
// and offset windows with Link-header navigation.
package page

import (
	"context"
	"fmt"
	"strconv"

	"go-asyncops/model"
	"go-asyncops/store"
)

const (
	DefaultLimit = 10
	MaxLimit     = 20
)

// Limit clamps a raw limit parameter to [1, MaxLimit]. Absent or
// non-numeric values fall back to DefaultLimit; the ceiling holds no
// matter what the caller asks for.
func Limit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	if n < 1 {
		return 1
	}
	return n
}

// Cursor parses an after parameter. An empty cursor means "from the
// beginning".
func Cursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("malformed cursor %q", raw)
	}
	return id, nil
}

type Edge struct {
	Cursor string        `json:"cursor"`
	Node   model.Article `json:"node"`
}

type Info struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type Connection struct {
	TotalCount int    `json:"totalCount"`
	PageInfo   Info   `json:"pageInfo"`
	Edges      []Edge `json:"edges"`
}

type Pager struct {
	store store.Store
}

func NewPager(st store.Store) *Pager {
	return &Pager{store: st}
}

// Page fetches one keyset page. hasNextPage is decided by probing for a
// single item beyond the last one returned, one extra round trip rather
// than over-fetching. totalCount is an independent full count and may
// lag the window under concurrent writes.
func (p *Pager) Page(ctx context.Context, after int64, limit int) (Connection, error) {
	articles, err := p.store.ListAfter(ctx, after, limit)
	if err != nil {
		return Connection{}, err
	}

	conn := Connection{Edges: make([]Edge, 0, len(articles))}
	for _, a := range articles {
		conn.Edges = append(conn.Edges, Edge{
			Cursor: strconv.FormatInt(a.ID, 10),
			Node:   a,
		})
	}

	if len(articles) > 0 {
		last := articles[len(articles)-1].ID
		end := strconv.FormatInt(last, 10)
		conn.PageInfo.EndCursor = &end

		probe, err := p.store.ListAfter(ctx, last, 1)
		if err != nil {
			return Connection{}, err
		}
		conn.PageInfo.HasNextPage = len(probe) > 0
	}

	total, err := p.store.Count(ctx)
	if err != nil {
		return Connection{}, err
	}
	conn.TotalCount = total

	return conn, nil
}
