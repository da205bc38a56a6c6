package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NonceKeyPrefix namespaces consumed nonces in Redis.
const NonceKeyPrefix = "vrf:auth:nonce:"

const maxFutureWindow = 5 * time.Minute

const (
	callerKey   = "vrf_caller"
	envelopeKey = "vrf_envelope"
)

var (
	ErrMissingHeaders  = errors.New("missing auth headers")
	ErrMalformed       = errors.New("malformed signed message")
	ErrExpired         = errors.New("request expired")
	ErrTooFarInFuture  = errors.New("expires_at too far in future")
	ErrInvalidSig      = errors.New("invalid signature")
	ErrNonceUsed       = errors.New("nonce already used")
	ErrActionMismatch  = errors.New("signed action does not match endpoint")
	ErrNotAdmin        = errors.New("admin only")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Authenticate checks headers against the envelope rules and consumes the
// nonce. It returns the recovered caller.
func Authenticate(ctx context.Context, rdb *redis.Client, h http.Header, now time.Time) (common.Address, *Envelope, error) {
	addr, msgB64, sigHex := h.Get(HeaderAddress), h.Get(HeaderMessage), h.Get(HeaderSignature)
	if addr == "" || msgB64 == "" || sigHex == "" {
		return common.Address{}, nil, ErrMissingHeaders
	}
	if !common.IsHexAddress(addr) {
		return common.Address{}, nil, ErrInvalidSig
	}

	msg, err := base64.StdEncoding.DecodeString(msgB64)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: encoding", ErrMalformed)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil || env.Nonce == "" {
		return common.Address{}, nil, fmt.Errorf("%w: json", ErrMalformed)
	}

	unix := now.Unix()
	if env.ExpiresAt <= unix {
		return common.Address{}, nil, ErrExpired
	}
	if env.ExpiresAt > unix+int64(maxFutureWindow.Seconds()) {
		return common.Address{}, nil, ErrTooFarInFuture
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, nil, ErrInvalidSig
	}
	signer, err := Recover(msg, sig)
	if err != nil || signer != common.HexToAddress(addr) {
		return common.Address{}, nil, ErrInvalidSig
	}

	// Nonce lives exactly as long as the envelope could still be accepted.
	ttl := time.Duration(env.ExpiresAt-unix) * time.Second
	fresh, err := rdb.SetNX(ctx, NonceKeyPrefix+env.Nonce, signer.Hex(), ttl).Result()
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("nonce store: %w", err)
	}
	if !fresh {
		return common.Address{}, nil, ErrNonceUsed
	}
	return signer, &env, nil
}

// Middleware authenticates the request and stores the caller and envelope in
// the gin context.
func Middleware(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, env, err := Authenticate(c.Request.Context(), rdb, c.Request.Header, time.Now())
		if err != nil {
			status := http.StatusUnauthorized
			if !isAuthError(err) {
				status = http.StatusInternalServerError
				err = errors.New("internal error")
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(callerKey, caller)
		c.Set(envelopeKey, env)
		c.Next()
	}
}

// RequireAdmin rejects callers other than admin. It must run after Middleware.
func RequireAdmin(admin common.Address) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := Caller(c)
		if !ok || caller != admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrNotAdmin.Error()})
			return
		}
		c.Next()
	}
}

// Caller returns the authenticated address.
func Caller(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// BindPayload checks that the envelope was signed for action and decodes its
// payload into dst. An empty payload leaves dst untouched.
func BindPayload(c *gin.Context, action string, dst any) error {
	v, ok := c.Get(envelopeKey)
	if !ok {
		return ErrUnauthenticated
	}
	env := v.(*Envelope)
	if env.Action != action {
		return fmt.Errorf("%w: signed %q, want %q", ErrActionMismatch, env.Action, action)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	return nil
}

func isAuthError(err error) bool {
	for _, e := range []error{ErrMissingHeaders, ErrMalformed, ErrExpired, ErrTooFarInFuture, ErrInvalidSig, ErrNonceUsed} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
