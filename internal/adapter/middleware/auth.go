package middleware

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	callerKey = "credlink.caller"
	adminKey  = "credlink.admin"

	// accepted clock drift for timestamps from the future
	maxFutureDrift = 60 * time.Second
)

var (
	errTokenFormat   = errors.New("invalid token format")
	errStaleToken    = errors.New("timestamp out of valid range")
	errNonceReplayed = errors.New("nonce already used")
	errSigMismatch   = errors.New("signature address mismatch")
	errNonceStore    = errors.New("nonce store unavailable")
)

// AuthConfig controls SignatureAuth and RequireAdmin.
type AuthConfig struct {
	Enabled bool
	Window  time.Duration
	Admins  []string
	Log     *zap.Logger
	Now     func() time.Time
}

// AuthMessage is the text a caller signs (EIP-191 personal message) to
// authenticate a request.
func AuthMessage(nonce string, timestamp int64) string {
	return fmt.Sprintf("credlink auth:%s:%d", nonce, timestamp)
}

// CallerFrom returns the authenticated caller address, or "" when the
// request was not authenticated.
func CallerFrom(c echo.Context) string {
	v, _ := c.Get(callerKey).(string)
	return v
}

// SetCaller records address as the authenticated caller of c.
func SetCaller(c echo.Context, address string) { c.Set(callerKey, address) }

// IsAdmin reports whether the request may act with operator rights: the
// caller is a configured admin, or auth is disabled.
func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(adminKey).(bool)
	return v
}

// SetAdmin records whether c carries operator rights.
func SetAdmin(c echo.Context, admin bool) { c.Set(adminKey, admin) }

// SignatureAuth authenticates mutating requests carrying
// "Authorization: Bearer <signature>:<nonce>:<timestamp>:<address>".
// Nonces are single use within the window and tracked in Redis.
// When disabled every request passes through without a caller.
func SignatureAuth(rdb *redis.Client, cfg AuthConfig) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()
	admins := adminSet(cfg.Admins)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled {
				SetAdmin(c, true)
				return next(c)
			}
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization header required"})
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()

			address, err := verifyToken(ctx, rdb, cfg, token)
			if err != nil {
				if errors.Is(err, errNonceStore) {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "nonce store unavailable"})
				}
				cfg.Log.Warn("authentication failed", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication failed"})
			}
			SetCaller(c, address)
			_, admin := admins[address]
			SetAdmin(c, admin)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers outside cfg.Admins with 403. It is a no-op
// when auth is disabled.
func RequireAdmin(cfg AuthConfig) echo.MiddlewareFunc {
	admins := adminSet(cfg.Admins)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled {
				return next(c)
			}
			caller := CallerFrom(c)
			if caller == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "caller not authenticated"})
			}
			if _, ok := admins[caller]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}

func adminSet(addrs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if common.IsHexAddress(a) {
			set[common.HexToAddress(a).Hex()] = struct{}{}
		}
	}
	return set
}

func (cfg AuthConfig) withDefaults() AuthConfig {
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// verifyToken returns the checksummed address that signed the token.
func verifyToken(ctx context.Context, rdb *redis.Client, cfg AuthConfig, token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 4 {
		return "", errTokenFormat
	}
	signature, nonce, tsRaw, address := parts[0], parts[1], parts[2], parts[3]
	if nonce == "" || len(nonce) > 128 {
		return "", fmt.Errorf("%w: nonce", errTokenFormat)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: address", errTokenFormat)
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: timestamp", errTokenFormat)
	}

	now := cfg.Now().Unix()
	if now-ts > int64(cfg.Window/time.Second) || ts > now+int64(maxFutureDrift/time.Second) {
		return "", errStaleToken
	}

	expected := common.HexToAddress(address)
	if err := verifySignature(AuthMessage(nonce, ts), signature, expected); err != nil {
		return "", err
	}

	fresh, err := rdb.SetNX(ctx, nonceKey(expected, nonce), ts, cfg.Window+maxFutureDrift).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNonceStore, err)
	}
	if !fresh {
		return "", errNonceReplayed
	}
	return expected.Hex(), nil
}

func verifySignature(message, signature string, expected common.Address) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return errors.New("invalid signature length")
	}
	// wallets emit v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(personalHash(message), sig)
	if err != nil {
		return fmt.Errorf("recover public key: %w", err)
	}
	if crypto.PubkeyToAddress(*pub) != expected {
		return errSigMismatch
	}
	return nil
}

func personalHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

func nonceKey(addr common.Address, nonce string) string {
	return "auth:nonce:credlink:" + strings.ToLower(addr.Hex()) + ":" + nonce
}
