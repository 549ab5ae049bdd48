package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "bikeshare:idempotency:"
	idempotencyTTL       = 24 * time.Hour
)

// idempotentRoutePrefixes lists the mutating surfaces where a retried
// request must not run twice: reservations move money and bikes, and
// station or bike registration must not duplicate rows.
var idempotentRoutePrefixes = []string{
	"/v1/reservations",
	"/v1/stations",
	"/v1/bikes",
}

// replayedResponse is the stored outcome of a completed request,
// served verbatim to retries carrying the same key.
type replayedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// bodyCapture wraps gin.ResponseWriter to keep a copy of the body for
// storage.
type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotentRoute reports whether a request is one we replay on retry.
func idempotentRoute(method, path string) bool {
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return false
	}
	for _, prefix := range idempotentRoutePrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Idempotency replays the stored response for a retried mutating
// request carrying the same Idempotency-Key. Requests without a key,
// reads, and routes outside the reservation, station and bike
// surfaces pass through untouched.
func Idempotency(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !idempotentRoute(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKeyPrefix + key

		stored, err := loadResponse(ctx, redisClient, storeKey)
		if err != nil && err != redis.Nil {
			// Redis being down degrades to at-least-once.
			c.Next()
			return
		}
		if stored != nil {
			contentType := stored.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			c.Data(stored.StatusCode, contentType, stored.Body)
			c.Abort()
			return
		}

		w := &bodyCapture{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Server-side failures are retryable for real; only settled
		// outcomes get replayed.
		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			_ = storeResponse(ctx, redisClient, storeKey, &replayedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			}, idempotencyTTL)
		}
	}
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*replayedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stored replayedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func storeResponse(ctx context.Context, client *redis.Client, key string, resp *replayedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, ttl).Err()
}
