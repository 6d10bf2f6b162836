package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-asyncops/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore backs the article collection with a BIGSERIAL-keyed
// table, so ids are monotonically increasing across inserts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create articles table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Insert(ctx context.Context, draft model.ArticleDraft) (model.Article, error) {
	article := model.Article{
		Title:       draft.Title,
		Description: draft.Description,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO articles (title, description)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		draft.Title, draft.Description,
	).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return model.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (model.Article, error) {
	var article model.Article
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, description, created_at
		FROM articles WHERE id = $1`, id).Scan(
		&article.ID, &article.Title, &article.Description, &article.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}

func (s *PostgresStore) ListAfter(ctx context.Context, after int64, limit int) ([]model.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, created_at
		FROM articles WHERE id > $1
		ORDER BY id ASC LIMIT $2`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles after %d: %w", after, err)
	}
	return scanArticles(rows)
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]model.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, created_at
		FROM articles
		ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return scanArticles(rows)
}

func scanArticles(rows pgx.Rows) ([]model.Article, error) {
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read article rows: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, id int64, draft model.ArticleDraft) (model.Article, error) {
	var article model.Article
	err := s.pool.QueryRow(ctx, `
		UPDATE articles SET title = $2, description = $3
		WHERE id = $1
		RETURNING id, title, description, created_at`,
		id, draft.Title, draft.Description,
	).Scan(&article.ID, &article.Title, &article.Description, &article.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("replace article %d: %w", id, err)
	}
	return article, nil
}
