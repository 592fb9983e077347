package cache

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uriKey(r *http.Request) string { return r.URL.RequestURI() }

func newTestCache(t *testing.T, ttl time.Duration) *PageCache {
	t.Helper()
	c, err := New(ttl, 1<<20, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPageCacheServesStaleCopy(t *testing.T) {
	c := newTestCache(t, time.Minute)
	calls := 0
	h := c.Handler(uriKey, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "render %d", calls)
	}))

	first := get(h, "/")
	second := get(h, "/")
	assert.Equal(t, "render 1", first.Body.String())
	assert.Equal(t, "render 1", second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "text/html", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	other := get(h, "/?page=2")
	assert.Equal(t, "render 2", other.Body.String())

	c.Clear()
	assert.Equal(t, "render 3", get(h, "/").Body.String())
}

func TestPageCacheSkipsErrorsAndWrites(t *testing.T) {
	c := newTestCache(t, time.Minute)
	calls := 0
	h := c.Handler(uriKey, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))

	get(h, "/missing")
	get(h, "/missing")
	assert.Equal(t, 2, calls)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, 4, calls)
}

func TestPageCacheKeyFunc(t *testing.T) {
	c := newTestCache(t, time.Minute)
	calls := 0
	h := c.Handler(func(r *http.Request) string {
		if r.Header.Get("X-Skip") != "" {
			return ""
		}
		return r.URL.RequestURI() + "|" + r.Header.Get("X-User")
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Set-Cookie", "a=b")
		fmt.Fprintf(w, "for %s", r.Header.Get("X-User"))
	}))

	req := func(user string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-User", user)
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, "for 1", req("1").Body.String())
	assert.Equal(t, "for 2", req("2").Body.String())
	hit := req("1")
	assert.Equal(t, "for 1", hit.Body.String())
	assert.Empty(t, hit.Header().Get("Set-Cookie"))
	assert.Equal(t, 2, calls)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Skip", "1")
	h.ServeHTTP(w, r)
	assert.Equal(t, 3, calls)
}

func TestPageCacheExpires(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)
	calls := 0
	h := c.Handler(uriKey, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("x"))
	}))

	get(h, "/")
	get(h, "/")
	assert.Equal(t, 1, calls)

	time.Sleep(100 * time.Millisecond)
	get(h, "/")
	assert.Equal(t, 2, calls)
}
