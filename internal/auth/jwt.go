package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind separates the three token uses so one can never stand in for
// another
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
	// KindPending is issued after a password check while the second factor
	// is outstanding
	KindPending TokenKind = "pending"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultPendingTTL = 5 * time.Minute
)

var (
	ErrSecretNotInitialized = errors.New("JWT secret not initialized")
	ErrWrongTokenKind       = errors.New("wrong token kind")
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and validates session tokens
type Issuer struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PendingTTL time.Duration

	now func() time.Time
}

// NewIssuer creates an issuer with the default lifetimes
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
		PendingTTL: DefaultPendingTTL,
		now:        time.Now,
	}
}

// TTL returns the lifetime of kind
func (i *Issuer) TTL(kind TokenKind) time.Duration {
	switch kind {
	case KindRefresh:
		return i.RefreshTTL
	case KindPending:
		return i.PendingTTL
	default:
		return i.AccessTTL
	}
}

// GenerateToken creates a signed token of kind for a user
func (i *Issuer) GenerateToken(kind TokenKind, userID, email string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrSecretNotInitialized
	}

	now := i.now()
	claims := JWTClaims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL(kind))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken validates a token and checks it is of the expected kind
func (i *Issuer) ValidateToken(tokenString string, kind TokenKind) (*JWTClaims, error) {
	if len(i.secret) == 0 {
		return nil, ErrSecretNotInitialized
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenKind, claims.Kind, kind)
	}

	return claims, nil
}
