package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-asyncops/bus"
	"go-asyncops/model"
	"go-asyncops/page"
	"go-asyncops/store"
	"go-asyncops/tasks"
)

type Server struct {
	store     store.Store
	scheduler *tasks.Scheduler
	pager     *page.Pager
	bus       bus.Bus
}

func NewServer(addr string, st store.Store, scheduler *tasks.Scheduler, b bus.Bus) *http.Server {
	mux := http.NewServeMux()

	srv := &Server{
		store:     st,
		scheduler: scheduler,
		pager:     page.NewPager(st),
		bus:       b,
	}
	mux.HandleFunc("POST /operations/tasks", srv.submitTask)
	mux.HandleFunc("GET /operations/tasks/{id}", srv.pollTask)
	mux.HandleFunc("GET /operations/{id}", srv.getOperation)
	mux.HandleFunc("GET /operations", srv.listOperations)
	mux.HandleFunc("POST /articles", srv.postArticle)
	mux.HandleFunc("GET /articles", srv.getArticles)
	mux.HandleFunc("GET /articles/{id}", srv.getArticle)
	mux.HandleFunc("PUT /articles/{id}", srv.putArticle)
	mux.HandleFunc("DELETE /articles/{id}", srv.deleteArticle)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "[API] Encoding error", http.StatusInternalServerError)
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (model.ArticleDraft, bool) {
	var draft model.ArticleDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return draft, false
	}
	if draft.Title == "" || draft.Description == "" {
		http.Error(w, "[API] title and description are required", http.StatusBadRequest)
		return draft, false
	}
	return draft, true
}

// articleID treats malformed ids the same as unknown ones: a reader
// asking for an id the store could never have assigned gets a 404.
func articleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// submitTask registers a deferred creation and answers immediately. The
// Content-Location header tells the client where to poll.
func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	taskID := s.scheduler.Submit(draft)

	w.Header().Set("Content-Location", "/operations/tasks/"+taskID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// pollTask answers 200 pending until the deferred action runs, then 303
// with a Location pointing at the created resource. done is a signal to
// follow that Location, not payload delivery.
func (s *Server) pollTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.scheduler.Poll(r.PathValue("id"))
	if errors.Is(err, tasks.ErrTaskNotFound) {
		http.Error(w, "[API] Task not found", http.StatusNotFound)
		return
	}

	if task.Status == model.StatusDone {
		w.Header().Set("Location", "/operations/"+strconv.FormatInt(task.ResultID, 10))
		writeJSON(w, http.StatusSeeOther, map[string]string{"status": "done"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
}

func (s *Server) getOperation(w http.ResponseWriter, r *http.Request) {
	s.fetchArticle(w, r)
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	s.fetchArticle(w, r)
}

func (s *Server) fetchArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}

	article, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// listOperations pages through created resources with a keyset cursor.
func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	first := q.Get("first")
	if first == "" {
		first = q.Get("limit")
	}
	limit := page.Limit(first)

	after, err := page.Cursor(q.Get("after"))
	if err != nil {
		http.Error(w, "[API] Invalid cursor", http.StatusBadRequest)
		return
	}

	conn, err := s.pager.Page(r.Context(), after, limit)
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// postArticle creates an article inline and publishes it on the bus, so
// an attached delivery worker relays it to the webhook sink.
func (s *Server) postArticle(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	article, err := s.store.Insert(r.Context(), draft)
	if err != nil {
		http.Error(w, "[API] Failed to insert article", http.StatusInternalServerError)
		return
	}

	s.bus.Publish(model.Event{
		Kind:    model.EventArticleCreated,
		Article: article,
	})

	identifier := "/articles/" + strconv.FormatInt(article.ID, 10)
	w.Header().Set("Location", identifier)
	w.Header().Set("Content-Location", identifier)
	writeJSON(w, http.StatusCreated, article)
}

func (s *Server) getArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := page.Limit(q.Get("limit"))
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	articles, err := s.store.List(r.Context(), offset, limit)
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Link", strings.Join(page.Links("/articles", offset, limit, total), ", "))
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) putArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}

	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	article, err := s.store.Replace(r.Context(), id, draft)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}

	err = s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "[API] Article not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "[API] Store error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
