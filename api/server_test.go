package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-asyncops/bus"
	"go-asyncops/model"
	"go-asyncops/store"
	"go-asyncops/tasks"
)

type fixture struct {
	handler http.Handler
	store   *store.MemoryStore
	bus     *bus.MemoryBus
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	b := bus.NewMemoryBus(8)
	scheduler := tasks.NewScheduler(tasks.NewRegistry(), st, b, delay)
	server := NewServer(":0", st, scheduler, b)
	return &fixture{handler: server.Handler, store: st, bus: b}
}

func (f *fixture) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["status"]
}

func TestDeferredOperationScenario(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)

	// Submit returns 202 with a poll location, nothing created yet.
	w := f.do("POST", "/operations/tasks", []byte(`{"title":"A","description":"B"}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	pollTarget := w.Header().Get("Content-Location")
	require.NotEmpty(t, pollTarget)
	assert.Equal(t, "pending", decodeStatus(t, w))

	// An immediate poll is pending.
	w = f.do("GET", pollTarget, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decodeStatus(t, w))

	// After the delay the poll redirects to the created resource.
	var location string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w = f.do("GET", pollTarget, nil)
		if w.Code == http.StatusSeeOther {
			location = w.Header().Get("Location")
			break
		}
		require.Equal(t, http.StatusOK, w.Code)
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, location, "task never completed")
	assert.Equal(t, "done", decodeStatus(t, w))

	// The redirect target serves the submitted payload plus an id.
	w = f.do("GET", location, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var article model.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&article))
	assert.Equal(t, "A", article.Title)
	assert.Equal(t, "B", article.Description)
	assert.NotZero(t, article.ID)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, time.Millisecond)

	w := f.do("POST", "/operations/tasks", []byte(`{oops}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", "/operations/tasks", []byte(`{"title":"only"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPollUnknownTask(t *testing.T) {
	f := newFixture(t, time.Millisecond)

	w := f.do("GET", "/operations/tasks/82c0373c-8005-42d3-b4ee-693d3b7b8e11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOperationNotFound(t *testing.T) {
	f := newFixture(t, time.Millisecond)

	t.Run("unknown id", func(t *testing.T) {
		w := f.do("GET", "/operations/42", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := f.do("GET", "/operations/not-a-number", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func seedArticles(t *testing.T, f *fixture, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		body := []byte(fmt.Sprintf(`{"title":"Title %d","description":"Description %d"}`, i, i))
		w := f.do("POST", "/articles", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestListOperationsCursor(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	seedArticles(t, f, 25)

	var conn struct {
		TotalCount int `json:"totalCount"`
		PageInfo   struct {
			EndCursor   *string `json:"endCursor"`
			HasNextPage bool    `json:"hasNextPage"`
		} `json:"pageInfo"`
		Edges []struct {
			Cursor string        `json:"cursor"`
			Node   model.Article `json:"node"`
		} `json:"edges"`
	}

	w := f.do("GET", "/operations?first=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conn))
	require.Len(t, conn.Edges, 10)
	assert.Equal(t, 25, conn.TotalCount)
	assert.Equal(t, "10", *conn.PageInfo.EndCursor)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, "1", conn.Edges[0].Cursor)

	w = f.do("GET", "/operations?first=10&after=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conn))
	require.Len(t, conn.Edges, 5)
	assert.False(t, conn.PageInfo.HasNextPage)

	t.Run("limit alias and clamp", func(t *testing.T) {
		w := f.do("GET", "/operations?limit=1000", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&conn))
		assert.Len(t, conn.Edges, 20)
	})

	t.Run("default limit", func(t *testing.T) {
		w := f.do("GET", "/operations", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&conn))
		assert.Len(t, conn.Edges, 10)
	})

	t.Run("bad cursor", func(t *testing.T) {
		w := f.do("GET", "/operations?after=xyz", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetArticlesOffsetWithLinkHeader(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	seedArticles(t, f, 25)

	w := f.do("GET", "/articles?limit=10&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var articles []model.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&articles))
	require.Len(t, articles, 10)
	assert.Equal(t, int64(11), articles[0].ID)

	link := w.Header().Get("Link")
	assert.Contains(t, link, `</articles?offset=20&limit=10>; rel="next"`)
	assert.Contains(t, link, `</articles?offset=0&limit=10>; rel="prev"`)
	assert.Contains(t, link, `</articles?offset=0&limit=10>; rel="first"`)
	assert.Contains(t, link, `</articles?offset=15&limit=10>; rel="last"`)
}

func TestPostArticlePublishesEvent(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	sub := f.bus.Subscribe()
	defer sub.Close()

	w := f.do("POST", "/articles", []byte(`{"title":"A","description":"B"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var article model.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&article))
	assert.Equal(t, "/articles/"+strconv.FormatInt(article.ID, 10), w.Header().Get("Location"))
	assert.Equal(t, w.Header().Get("Location"), w.Header().Get("Content-Location"))

	select {
	case event := <-sub.Events():
		assert.Equal(t, model.EventArticleCreated, event.Kind)
		assert.Equal(t, article.ID, event.Article.ID)
	case <-time.After(time.Second):
		t.Fatal("no event published for direct creation")
	}
}

func TestPutAndDeleteArticle(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	seedArticles(t, f, 1)

	w := f.do("PUT", "/articles/1", []byte(`{"title":"New","description":"Fields"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var article model.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&article))
	assert.Equal(t, "New", article.Title)

	w = f.do("PUT", "/articles/9", []byte(`{"title":"New","description":"Fields"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("DELETE", "/articles/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// External deletion is a normal not-found for later readers.
	w = f.do("GET", "/operations/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("DELETE", "/articles/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
