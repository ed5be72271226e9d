package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(IdempotencyMiddleware(rdb, ttl, nil))
	e.POST("/loans", handler)
	e.GET("/loans", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// simple handler to exercise respRecorder capture and replay
func okCreatedHandler(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]any{"ok": true})
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/loans", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, okCreatedHandler)

	// base headers (valid) to start from
	valid := map[string]string{
		"X-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // 32-hex (valid)
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}

	// missing X-Request-Id
	h := map[string]string{
		"X-Request-At": valid["X-Request-At"],
	}
	rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing X-Request-Id => want 400, got %d", rec.Code)
	}

	// invalid X-Request-Id
	h = map[string]string{
		"X-Request-Id": "NOT-VALID",
		"X-Request-At": valid["X-Request-At"],
	}
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid X-Request-Id => want 400, got %d", rec.Code)
	}

	// invalid X-Request-At format
	h = map[string]string{
		"X-Request-Id": valid["X-Request-Id"],
		"X-Request-At": "not-a-time",
	}
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid X-Request-At => want 400, got %d", rec.Code)
	}

	// X-Request-At too skewed (past)
	h = map[string]string{
		"X-Request-Id": valid["X-Request-Id"],
		"X-Request-At": time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339),
	}
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("X-Request-At skew => want 400, got %d", rec.Code)
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	h := map[string]string{
		"X-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
	body := mkJSONBody(t, map[string]any{"principal": 5000000})

	// First request -> goes through handler (201, {"ok":true})
	rec1 := doReq(t, e, http.MethodPost, "/loans", body, h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	// Second request with SAME headers & body -> replay stored response (also 201)
	rec2 := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]any{"principal": 5000000}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	method := http.MethodPost
	path := "/loans"
	reqID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	body := []byte(`{"x":1}`)

	// seed a pending claim so the request finds it in progress
	key := idempKey{Method: method, Route: path, Principal: anonymousPrincipal, RequestID: reqID}
	if ok, err := newIdempStore(rdb).claim(context.Background(), key, digestOf(body), time.Now()); err != nil || !ok {
		t.Fatalf("seed pending failed, ok=%v err=%v", ok, err)
	}

	h := map[string]string{
		"X-Request-Id": reqID,
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
	rec := doReq(t, e, method, path, bytes.NewReader(body), h)

	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	method := http.MethodPost
	path := "/loans"
	reqID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	body1 := []byte(`{"x":1}`)
	body2 := []byte(`{"x":2}`)

	// seed a completed record for body1
	key := idempKey{Method: method, Route: path, Principal: anonymousPrincipal, RequestID: reqID}
	final := idempRecord{
		Digest:    digestOf(body1),
		RequestAt: time.Now().UTC(),
		Status:    http.StatusCreated,
		Body:      []byte(`{"ok":true}`),
	}
	if err := newIdempStore(rdb).complete(context.Background(), key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	h := map[string]string{
		"X-Request-Id": reqID,
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
	rec := doReq(t, e, method, path, bytes.NewReader(body2), h)

	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// Create a client that points to a closed address → SetNX error
	// (fast fail vs waiting the whole context)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, okCreatedHandler)

	h := map[string]string{
		"X-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
	rec := doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), h)

	if rec.Code != http.StatusServiceUnavailable && rec.Code != http.StatusBadGateway {
		// expect 503 from the middleware path
		t.Fatalf("store unavailable => want 503-ish, got %d", rec.Code)
	}
}

func Test_KeyIsScopedToCaller(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	calls := 0
	e := echo.New()
	e.HideBanner = true
	// stand-in for SignatureAuth
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetCaller(c, c.Request().Header.Get("X-Test-Caller"))
			return next(c)
		}
	})
	e.Use(IdempotencyMiddleware(rdb, time.Minute, nil))
	e.POST("/loans", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, map[string]int{"call": calls})
	})

	base := map[string]string{
		"X-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
	withCaller := func(caller string) map[string]string {
		h := map[string]string{"X-Test-Caller": caller}
		for k, v := range base {
			h[k] = v
		}
		return h
	}

	rec := doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), withCaller("0xA"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first caller => want 201, got %d", rec.Code)
	}
	rec = doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), withCaller("0xB"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("second caller => want 201, got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("same request id from different callers must not replay, calls=%d", calls)
	}

	key := idempKey{Method: http.MethodPost, Route: "/loans", Principal: "0xA", RequestID: base["X-Request-Id"]}
	if !mr.Exists(key.String()) {
		t.Fatalf("expected key scoped to caller 0xA")
	}
}

func Test_ServerErrorIsNotStored(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	calls := 0
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		calls++
		if calls == 1 {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusCreated, map[string]int{"call": calls})
	})
	h := map[string]string{
		"X-Request-Id": "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		"X-Request-At": time.Now().UTC().Format(time.RFC3339),
	}

	rec := doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), h)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("first attempt => want 500, got %d", rec.Code)
	}
	rec = doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), h)
	if rec.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("retry after 500 => want fresh 201, got %d after %d calls", rec.Code, calls)
	}
	rec = doReq(t, e, http.MethodPost, "/loans", bytes.NewReader([]byte(`{}`)), h)
	if rec.Code != http.StatusCreated || calls != 2 || !strings.Contains(rec.Body.String(), `"call":2`) {
		t.Fatalf("third attempt => want replayed 201, got %d %s after %d calls", rec.Code, rec.Body.String(), calls)
	}
}
