package model

import "time"

type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusDone    TaskStatus = "done"
)

// Task tracks one deferred article creation. Status only ever moves
// pending -> done; the payload is dropped once the article exists.
type Task struct {
	ID        string
	Status    TaskStatus
	Payload   *ArticleDraft
	ResultID  int64
	CreatedAt time.Time
}

// ArticleDraft is the client-submitted creation request.
type ArticleDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

const EventArticleCreated = "article.created"

// Event is published on the bus once per created article. It is never
// persisted; subscribers attached after publish do not see it.
type Event struct {
	Kind    string  `json:"kind"`
	Article Article `json:"article"`
}
