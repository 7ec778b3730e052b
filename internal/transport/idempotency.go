package transport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	portcache "github.com/alanyang/construction-hub/internal/port/cache"
)

const (
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderIdempotentReplay = "Idempotent-Replay"

	IdempotencyTTL = 24 * time.Hour
	// IdempotencyLockTTL bounds how long an in-flight reservation blocks
	// retries if the process dies before storing the response.
	IdempotencyLockTTL = time.Minute
)

// storedResponse is the cache entry for one key. Pending marks a request
// that is still being handled.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	BodyHash    string `json:"body_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Location    string `json:"location,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the first response to a POST carrying an
// Idempotency-Key header. The key is reserved before the handler runs, so a
// concurrent retry gets 409 instead of a second execution, and it is bound to
// the request body: reusing it with a different body gets 422. Server errors
// are not remembered so the client can retry them. A nil cache disables the
// middleware.
func IdempotencyMiddleware(cache portcache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if cache == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + c.Request.URL.Path + ":" + key

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		bodyHash := hex.EncodeToString(sum[:])

		data, err := cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			if answerExisting(c, data, bodyHash) {
				return
			}
			_ = cache.Invalidate(ctx, cacheKey)
		case !errors.Is(err, portcache.ErrMiss):
			// Cache unavailable: serve the request without replay protection.
			slog.WarnContext(ctx, "idempotency lookup failed", "key", key, "error", err)
			record(c, cache, cacheKey, key, bodyHash)
			return
		}

		pending, _ := json.Marshal(storedResponse{Pending: true, BodyHash: bodyHash})
		reserved, err := cache.SetIfAbsent(ctx, cacheKey, pending, IdempotencyLockTTL)
		if err != nil {
			slog.WarnContext(ctx, "idempotency reservation failed", "key", key, "error", err)
			record(c, cache, cacheKey, key, bodyHash)
			return
		}
		if !reserved {
			// Lost the race to another request with the same key.
			data, err := cache.Get(ctx, cacheKey)
			if err == nil && answerExisting(c, data, bodyHash) {
				return
			}
			conflict(c)
			return
		}

		record(c, cache, cacheKey, key, bodyHash)
	}
}

// answerExisting responds from an existing entry and reports whether it did.
func answerExisting(c *gin.Context, data []byte, bodyHash string) bool {
	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		slog.WarnContext(c.Request.Context(), "idempotency entry corrupt", "error", err)
		return false
	}
	switch {
	case stored.BodyHash != bodyHash:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Idempotency-Key was already used with a different request body",
		})
	case stored.Pending:
		conflict(c)
	default:
		replay(c, stored)
	}
	return true
}

// record runs the handler and stores its response under cacheKey. A server
// error releases the key instead.
func record(c *gin.Context, cache portcache.Cache, cacheKey, key, bodyHash string) {
	ctx := c.Request.Context()
	rec := &bodyRecorder{ResponseWriter: c.Writer}
	c.Writer = rec
	c.Next()

	status := rec.Status()
	if status >= http.StatusInternalServerError {
		if err := cache.Invalidate(ctx, cacheKey); err != nil {
			slog.WarnContext(ctx, "idempotency release failed", "key", key, "error", err)
		}
		return
	}
	payload, err := json.Marshal(storedResponse{
		BodyHash:    bodyHash,
		Status:      status,
		ContentType: rec.Header().Get("Content-Type"),
		Location:    rec.Header().Get("Location"),
		Body:        rec.buf.Bytes(),
	})
	if err != nil {
		return
	}
	if err := cache.Set(ctx, cacheKey, payload, IdempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency store failed", "key", key, "error", err)
	}
}

func conflict(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"error": "a request with this Idempotency-Key is still in progress",
	})
}

func replay(c *gin.Context, stored storedResponse) {
	c.Header(HeaderIdempotentReplay, "true")
	if stored.Location != "" {
		c.Header("Location", stored.Location)
	}
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
}
