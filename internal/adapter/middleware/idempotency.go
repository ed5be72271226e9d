package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-Id"
	headerRequestAt = "X-Request-At"

	// principal used in keys when auth is disabled
	anonymousPrincipal = "anonymous"

	// allowed client/server clock skew for X-Request-At
	maxClockSkew = 10 * time.Minute
)

// respRecorder tees the response so it can be stored for replay.
type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// IdempotencyMiddleware makes mutating requests safe to retry. The key is
// method, route, caller and X-Request-Id; a retry with the same body gets
// the stored response, a different body or a request still running gets
// 409. Server errors are not stored so the client can retry them.
// X-Request-At must be within maxClockSkew of the server clock.
// It must run after SignatureAuth so the caller is known.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := newIdempStore(rdb)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(headerRequestID))
			if reqID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + headerRequestID})
			}
			if !validRequestID(reqID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + headerRequestID + " format"})
			}
			reqAt, err := parseRequestAt(req.Header.Get(headerRequestAt))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := store.now().UTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": headerRequestAt + " too skewed"})
			}

			principal := CallerFrom(c)
			if principal == "" {
				principal = anonymousPrincipal
			}
			key := idempKey{Method: req.Method, Route: c.Path(), Principal: principal, RequestID: reqID}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			digest := digestOf(body)

			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			claimed, err := store.claim(ctx, key, digest, reqAt)
			if err != nil {
				log.Error("idempotency store unavailable", zap.String("key", key.String()), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				cur, err := store.load(ctx, key)
				if err != nil {
					log.Warn("load idempotency record", zap.String("key", key.String()), zap.Error(err))
				}
				if cur.mismatch(digest) {
					return c.JSON(http.StatusConflict, map[string]string{"error": headerRequestID + " reused with different body"})
				}
				if cur.replayable() {
					ct := cur.ContentType
					if ct == "" {
						ct = echo.MIMEApplicationJSON
					}
					return c.Blob(cur.Status, ct, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be cancelled
			bg, cancelBg := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancelBg()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(bg, key); err != nil {
					log.Warn("release idempotency key", zap.String("key", key.String()), zap.Error(err))
				}
				return nil
			}
			final := idempRecord{
				Digest:      digest,
				RequestAt:   reqAt,
				Status:      rec.code,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			}
			if err := store.complete(bg, key, final, ttl); err != nil {
				log.Warn("save idempotency record", zap.String("key", key.String()), zap.Error(err))
			}
			return nil
		}
	}
}
