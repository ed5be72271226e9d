package middleware

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, key *ecdsa.PrivateKey, nonce string, ts int64) string {
	t.Helper()
	sig, err := crypto.Sign(personalHash(AuthMessage(nonce, ts)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return fmt.Sprintf("0x%s:%s:%d:%s", hex.EncodeToString(sig), nonce, ts, addr.Hex())
}

func authEcho(rdb *redis.Client, cfg AuthConfig) *echo.Echo {
	cfg.Now = func() time.Time { return fixedNow }
	e := echo.New()
	e.HideBanner = true
	e.Use(SignatureAuth(rdb, cfg))
	whoami := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"caller": CallerFrom(c)})
	}
	e.GET("/loans", whoami)
	e.POST("/loans", whoami)
	e.POST("/pools", whoami, RequireAdmin(cfg))
	e.POST("/rights", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"admin": IsAdmin(c)})
	})
	return e
}

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func TestSignatureAuth_ValidTokenSetsCaller(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	key, _ := crypto.GenerateKey()
	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute})

	rec := doReq(t, e, http.MethodPost, "/loans", nil, bearer(signToken(t, key, "n-1", fixedNow.Unix())))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	want := crypto.PubkeyToAddress(key.PublicKey).Hex()
	if got := rec.Body.String(); got != fmt.Sprintf("{\"caller\":%q}\n", want) {
		t.Fatalf("caller mismatch: %s", got)
	}
}

func TestSignatureAuth_NonceReplayRejected(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	key, _ := crypto.GenerateKey()
	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute})

	token := signToken(t, key, "n-1", fixedNow.Unix())
	if rec := doReq(t, e, http.MethodPost, "/loans", nil, bearer(token)); rec.Code != http.StatusOK {
		t.Fatalf("first use want 200, got %d", rec.Code)
	}
	if rec := doReq(t, e, http.MethodPost, "/loans", nil, bearer(token)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay want 401, got %d", rec.Code)
	}
}

func TestSignatureAuth_Rejections(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute})

	forged := signToken(t, key, "n-2", fixedNow.Unix())
	// swap the address for someone else's
	forged = forged[:len(forged)-42] + crypto.PubkeyToAddress(other.PublicKey).Hex()

	cases := []struct {
		name string
		hdr  map[string]string
	}{
		{"missing header", nil},
		{"not bearer", map[string]string{echo.HeaderAuthorization: "Basic abc"}},
		{"bad format", bearer("only:three:parts")},
		{"stale", bearer(signToken(t, key, "n-3", fixedNow.Add(-2*time.Minute).Unix()))},
		{"future", bearer(signToken(t, key, "n-4", fixedNow.Add(5*time.Minute).Unix()))},
		{"wrong signer", bearer(forged)},
		{"bad signature hex", bearer(fmt.Sprintf("zz:n-5:%d:%s", fixedNow.Unix(), crypto.PubkeyToAddress(key.PublicKey).Hex()))},
	}
	for _, tc := range cases {
		rec := doReq(t, e, http.MethodPost, "/loans", nil, tc.hdr)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: want 401, got %d", tc.name, rec.Code)
		}
	}
}

func TestSignatureAuth_GETAndDisabledBypass(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	e := authEcho(rdb, AuthConfig{Enabled: true})
	if rec := doReq(t, e, http.MethodGet, "/loans", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("GET want 200, got %d", rec.Code)
	}

	e = authEcho(rdb, AuthConfig{Enabled: false})
	if rec := doReq(t, e, http.MethodPost, "/loans", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("disabled POST want 200, got %d", rec.Code)
	}
	if rec := doReq(t, e, http.MethodPost, "/pools", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("disabled admin route want 200, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	admin, _ := crypto.GenerateKey()
	user, _ := crypto.GenerateKey()
	adminAddr := crypto.PubkeyToAddress(admin.PublicKey).Hex()

	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute, Admins: []string{adminAddr}})

	rec := doReq(t, e, http.MethodPost, "/pools", nil, bearer(signToken(t, user, "u-1", fixedNow.Unix())))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin want 403, got %d", rec.Code)
	}
	rec = doReq(t, e, http.MethodPost, "/pools", nil, bearer(signToken(t, admin, "a-1", fixedNow.Unix())))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin want 200, got %d", rec.Code)
	}
}

func TestSignatureAuth_MarksAdmins(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	admin, _ := crypto.GenerateKey()
	user, _ := crypto.GenerateKey()
	// configured in lowercase, matched against the checksummed caller
	adminAddr := strings.ToLower(crypto.PubkeyToAddress(admin.PublicKey).Hex())

	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute, Admins: []string{adminAddr}})
	cases := []struct {
		key  *ecdsa.PrivateKey
		want string
	}{
		{admin, `{"admin":true}`},
		{user, `{"admin":false}`},
	}
	for i, tc := range cases {
		rec := doReq(t, e, http.MethodPost, "/rights", nil, bearer(signToken(t, tc.key, fmt.Sprintf("r-%d", i), fixedNow.Unix())))
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != tc.want {
			t.Fatalf("case %d: got %d %s, want %s", i, rec.Code, rec.Body.String(), tc.want)
		}
	}

	e = authEcho(rdb, AuthConfig{Enabled: false})
	if rec := doReq(t, e, http.MethodPost, "/rights", nil, nil); strings.TrimSpace(rec.Body.String()) != `{"admin":true}` {
		t.Fatalf("disabled auth should grant operator rights, got %s", rec.Body.String())
	}
}

func TestSignatureAuth_StoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	key, _ := crypto.GenerateKey()
	e := authEcho(rdb, AuthConfig{Enabled: true, Window: time.Minute})

	rec := doReq(t, e, http.MethodPost, "/loans", nil, bearer(signToken(t, key, "n-1", fixedNow.Unix())))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}

func TestVerifySignature_Length(t *testing.T) {
	key, _ := crypto.GenerateKey()
	err := verifySignature("m", "0x00", crypto.PubkeyToAddress(key.PublicKey))
	if err == nil {
		t.Fatalf("expected length error")
	}
}
