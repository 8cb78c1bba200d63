package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SivanLevi100/storefront/internal/domain/identity"
)

type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(p identity.Principal) (string, error) {
	if p.UserID <= 0 || !p.Role.Valid() {
		return "", fmt.Errorf("auth: invalid principal %d/%q", p.UserID, p.Role)
	}
	now := t.now()
	claims := Claims{
		UserID: p.UserID,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns its principal. Every failure wraps identity.ErrUnauthenticated.
func (t *Tokens) Verify(tokenStr string) (identity.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("%w: %w", identity.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return identity.Principal{}, fmt.Errorf("%w: %w", identity.ErrUnauthenticated, jwt.ErrTokenInvalidClaims)
	}
	p := identity.Principal{UserID: claims.UserID, Role: identity.Role(claims.Role)}
	if p.UserID <= 0 || !p.Role.Valid() {
		return identity.Principal{}, fmt.Errorf("%w: %w", identity.ErrUnauthenticated, errors.New("missing uid or role"))
	}
	return p, nil
}
