package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/ctxutil"
)

// Verifier validates HS256 access tokens issued by the external identity provider.
// secret must be at least 32 characters.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewVerifier creates a new token verifier. Empty issuer or audience disables that check.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// sessionClaims are the provider claims this service reads
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// CurrentSession parses and validates a bearer token and returns its session.
// Every failure wraps domain.ErrUnauthenticated.
func (v *Verifier) CurrentSession(tokenString string) (ctxutil.Session, error) {
	if tokenString == "" {
		return ctxutil.Session{}, fmt.Errorf("token is empty: %w", domain.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return ctxutil.Session{}, fmt.Errorf("parse token: %v: %w", err, domain.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return ctxutil.Session{}, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthenticated)
	}

	if claims.Subject == "" {
		return ctxutil.Session{}, fmt.Errorf("token has no subject: %w", domain.ErrUnauthenticated)
	}

	return ctxutil.Session{Subject: claims.Subject, Email: claims.Email}, nil
}
