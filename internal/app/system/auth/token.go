package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const tokenTypeAccess = "access"

// TokenClaims is what an access token asserts about its holder.
type TokenClaims struct {
	UserID    models.UserID
	Role      string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager. secret must not be empty.
func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs an access token for the user.
func (m *TokenManager) Issue(userID models.UserID, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)

	tok, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.issuer).
		Subject(userID.Hex()).
		IssuedAt(now).
		Expiration(exp).
		NotBefore(now).
		Claim("role", models.NormalizeRole(role)).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), m.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return string(signed), exp, nil
}

// Verify checks signature, issuer and validity window and returns the claims.
func (m *TokenManager) Verify(raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), m.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return TokenClaims{}, fmt.Errorf("verify token: %w", ErrTokenExpired)
		}
		return TokenClaims{}, fmt.Errorf("verify token: %w", ErrTokenInvalid)
	}

	var typ string
	if err := tok.Get("type", &typ); err != nil || typ != tokenTypeAccess {
		return TokenClaims{}, fmt.Errorf("verify token: wrong type: %w", ErrTokenInvalid)
	}

	sub, ok := tok.Subject()
	if !ok {
		return TokenClaims{}, fmt.Errorf("verify token: missing subject: %w", ErrTokenInvalid)
	}
	uid, err := models.ParseUserID(sub)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("verify token: bad subject: %w", ErrTokenInvalid)
	}

	var role string
	if err := tok.Get("role", &role); err != nil {
		return TokenClaims{}, fmt.Errorf("verify token: missing role: %w", ErrTokenInvalid)
	}

	claims := TokenClaims{UserID: uid, Role: role}
	if exp, ok := tok.Expiration(); ok {
		claims.ExpiresAt = exp
	}
	return claims, nil
}
