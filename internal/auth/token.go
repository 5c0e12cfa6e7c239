package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/chirpnet/apiserver/config"
	"github.com/golang-jwt/jwt/v5"
)

// Verification failures, distinguishable for diagnostics. The HTTP
// boundary collapses all of them to 401.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenInvalid   = errors.New("token invalid")
)

// Claims is the self-contained claim set carried by a session token.
// Subject holds the user ID; Email is a redundant copy for downstream
// convenience. Verification needs no store lookup.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256-signed session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens constructs a Tokens from config, applying defaults for any
// unset fields.
func NewTokens(cfg config.AuthConfig) *Tokens {
	secret := cfg.JWTSecret
	if strings.TrimSpace(secret) == "" {
		secret = config.DefaultJWTSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the given subject.
func (t *Tokens) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature and expiry and returns the decoded claims only
// if both pass.
func (t *Tokens) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
