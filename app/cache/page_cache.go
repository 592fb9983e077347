// Package cache holds rendered pages in memory for a fixed time.
package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// KeyFunc derives the cache key for a request. Returning "" skips the cache.
type KeyFunc func(r *http.Request) string

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// PageCache stores whole GET responses. Entries expire after ttl and are
// never invalidated by writes.
type PageCache struct {
	cache  *ristretto.Cache[string, *cachedResponse]
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a PageCache holding up to maxBytes of response bodies.
func New(ttl time.Duration, maxBytes int64, logger *zap.Logger) (*PageCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *cachedResponse]{
		NumCounters:        1e4,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating page cache")
	}
	return &PageCache{cache: c, ttl: ttl, logger: logger}, nil
}

// Clear drops every cached page.
func (p *PageCache) Clear() {
	p.cache.Clear()
}

func (p *PageCache) Close() {
	p.cache.Close()
}

// Handler serves cached copies of next's 200 responses to GET requests.
func (p *PageCache) Handler(keyFn KeyFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		k := keyFn(r)
		if k == "" {
			next.ServeHTTP(w, r)
			return
		}

		if resp, ok := p.cache.Get(k); ok {
			p.logger.Debug("page cache hit", zap.String("key", k))
			writeCached(w, resp)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status != http.StatusOK {
			return
		}
		resp := &cachedResponse{
			status: rec.status,
			header: w.Header().Clone(),
			body:   rec.buf.Bytes(),
		}
		// Per-request values must not leak to other users.
		resp.header.Del("Set-Cookie")
		p.cache.SetWithTTL(k, resp, int64(len(resp.body)), p.ttl)
		p.cache.Wait()
	})
}

func writeCached(w http.ResponseWriter, resp *cachedResponse) {
	for name, values := range resp.header {
		w.Header()[name] = append([]string(nil), values...)
	}
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}

// recorder passes the response through while keeping a copy of the body.
type recorder struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
