package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const idempKeyPrefix = "idemp:credlink:"

type idempState string

const (
	statePending idempState = "pending"
	stateDone    idempState = "done"
)

// idempKey identifies one logical mutation: the same caller retrying the
// same route with the same request id.
type idempKey struct {
	Method    string
	Route     string
	Principal string
	RequestID string
}

func (k idempKey) String() string {
	return idempKeyPrefix + strings.ToLower(k.Method) + ":" + k.Route + ":" + k.Principal + ":" + k.RequestID
}

// idempRecord is the JSON value stored under an idempKey.
type idempRecord struct {
	State       idempState `json:"state"`
	Digest      string     `json:"digest"`
	RequestAt   time.Time  `json:"request_at"`
	Status      int        `json:"status,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Body        []byte     `json:"body,omitempty"`
	StoredAt    time.Time  `json:"stored_at"`
}

func (r idempRecord) replayable() bool {
	return r.State == stateDone && r.Status != 0 && len(r.Body) > 0
}

// mismatch reports whether digest belongs to a different request body.
func (r idempRecord) mismatch(digest string) bool {
	return r.Digest != "" && r.Digest != digest
}

// idempStore keeps idempotency records in Redis. A pending record is a
// short-lived lock; a done record holds the response for replay.
type idempStore struct {
	rdb        redis.Cmdable
	pendingTTL time.Duration
	now        func() time.Time
}

func newIdempStore(rdb redis.Cmdable) *idempStore {
	return &idempStore{rdb: rdb, pendingTTL: 60 * time.Second, now: time.Now}
}

// claim takes the key for this request. false means another request
// already holds or completed it.
func (s *idempStore) claim(ctx context.Context, key idempKey, digest string, at time.Time) (bool, error) {
	payload, err := json.Marshal(idempRecord{
		State:     statePending,
		Digest:    digest,
		RequestAt: at.UTC(),
		StoredAt:  s.now().UTC(),
	})
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key.String(), payload, s.pendingTTL).Result()
}

func (s *idempStore) load(ctx context.Context, key idempKey) (idempRecord, error) {
	var rec idempRecord
	raw, err := s.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode idempotency record: %w", err)
	}
	return rec, nil
}

// complete replaces the pending lock with the final response.
func (s *idempStore) complete(ctx context.Context, key idempKey, rec idempRecord, ttl time.Duration) error {
	rec.State = stateDone
	rec.StoredAt = s.now().UTC()
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key.String(), payload, ttl).Err()
}

// release drops the key so the client may retry, used after server errors.
func (s *idempStore) release(ctx context.Context, key idempKey) error {
	return s.rdb.Del(ctx, key.String()).Err()
}

func digestOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// validRequestID accepts lowercase 32-hex ids and lowercase RFC 4122
// UUIDs of versions 1 to 5.
func validRequestID(s string) bool {
	if s == "" || s != strings.ToLower(s) {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	switch len(s) {
	case 32:
		return true
	case 36:
		return u.Variant() == uuid.RFC4122 && u.Version() >= 1 && u.Version() <= 5
	}
	return false
}

// epoch values above this are taken as milliseconds
const epochMillisThreshold = 1e12

// parseRequestAt reads X-Request-At as epoch seconds, epoch milliseconds or
// RFC 3339 with an explicit zone. Zoneless timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + headerRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > epochMillisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also accepts timestamps without fractional seconds
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(headerRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}
