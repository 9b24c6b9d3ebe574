// Package token implements signed, expiring tokens carrying a subject and a
// purpose. Tokens are stateless: validity is determined purely by signature
// and expiry at decode time, so issued tokens cannot be revoked early.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose tags what a token may be used for. Decode enforces the purpose so a
// verification link cannot be replayed against the password-reset endpoint.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeVerify  Purpose = "verify"
	PurposeReset   Purpose = "reset"
)

// TTLs holds the lifetime for each token purpose.
type TTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Verify  time.Duration
	Reset   time.Duration
}

// Codec issues and decodes HS256-signed tokens.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttls     TTLs
	now      func() time.Time
}

// NewCodec creates a Codec with the given process-wide signing secret.
func NewCodec(secret string, ttls TTLs) *Codec {
	return &Codec{
		secret:   []byte(secret),
		issuer:   "inkwell-api",
		audience: "inkwell-client",
		ttls:     ttls,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests to force expiry.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

func (c *Codec) ttl(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeAccess:
		return c.ttls.Access
	case PurposeRefresh:
		return c.ttls.Refresh
	case PurposeVerify:
		return c.ttls.Verify
	case PurposeReset:
		return c.ttls.Reset
	}
	return 0
}

// Issue creates a signed token for the given subject and purpose.
func (c *Codec) Issue(subjectID uint, purpose Purpose) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	ttl := c.ttl(purpose)
	if ttl <= 0 {
		return "", fmt.Errorf("no TTL configured for token purpose %q", purpose)
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(subjectID), 10),
		"purpose": string(purpose),
		"iss":     c.issuer,
		"aud":     c.audience,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"jti":     generateJTI(now),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Decode validates signature, expiry and purpose and returns the subject id.
// Failure kinds are distinct: expired, invalid (bad signature or wrong
// purpose/issuer/audience) and malformed (unparseable structure).
// Subject existence is not checked; callers look the account up themselves.
func (c *Codec) Decode(tokenString string, purpose Purpose) (uint, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuer(c.issuer), jwt.WithAudience(c.audience))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, models.NewTokenExpiredError()
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, models.NewTokenMalformedError()
		default:
			return 0, models.NewTokenInvalidError()
		}
	}
	if !parsed.Valid {
		return 0, models.NewTokenInvalidError()
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, models.NewTokenMalformedError()
	}

	if p, _ := claims["purpose"].(string); p != string(purpose) {
		return 0, models.NewTokenInvalidError()
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, models.NewTokenMalformedError()
	}
	subjectID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || subjectID == 0 {
		return 0, models.NewTokenMalformedError()
	}

	return uint(subjectID), nil
}

// JTI returns the unique token id claim, for revocation bookkeeping.
// Returns empty values for tokens that cannot be parsed.
func (c *Codec) JTI(tokenString string) (jti string, expiresAt time.Time) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return "", time.Time{}
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}
	}
	jti, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return jti, expiresAt
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}
