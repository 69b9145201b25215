package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// ResponseCache caches GET responses for read-mostly endpoints. Entries
// are keyed by path plus the query in canonical (sorted-parameter) form,
// so date-scoped endpoints get one entry per date and parameter order
// never splits the cache. Write handlers evict affected paths through
// InvalidatePath; the TTL is only a backstop against missed evictions.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewResponseCache creates a response cache with the given entry TTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

type storedResponse struct {
	status int
	header http.Header
	body   []byte
}

type teeWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cacheKey canonicalizes a request to path, or path?query with the
// parameters sorted by name (url.Values.Encode sorts).
func cacheKey(r *http.Request) string {
	q := r.URL.Query()
	if len(q) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q.Encode()
}

// Middleware serves cached GET responses and stores 2xx responses on miss.
// Failures always fall through to the handler on the next request.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if hit, found := rc.store.Get(key); found {
			stored := hit.(storedResponse)
			for k, v := range stored.header {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(stored.status)
			c.Writer.Write(stored.body)
			c.Abort()
			return
		}

		tee := &teeWriter{buf: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = tee

		c.Next()

		if tee.Status() >= 200 && tee.Status() < 300 {
			rc.store.Set(key, storedResponse{
				status: tee.Status(),
				header: tee.Header().Clone(),
				body:   tee.buf.Bytes(),
			}, rc.ttl)
		}
	}
}

// InvalidatePath evicts every cached response for the path across all its
// query variants (every date, every filter combination).
func (rc *ResponseCache) InvalidatePath(path string) {
	for key := range rc.store.Items() {
		if key == path || strings.HasPrefix(key, path+"?") {
			rc.store.Delete(key)
		}
	}
}
