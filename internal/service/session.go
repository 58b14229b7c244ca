package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
)

// SessionAuthenticator turns a session token into the id of the signed-in
// user.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// JWTSessions verifies HS256 session tokens whose subject is the user id.
type JWTSessions struct {
	secret []byte
	issuer string
}

func NewJWTSessions(secret, issuer string) *JWTSessions {
	return &JWTSessions{secret: []byte(secret), issuer: issuer}
}

func (s *JWTSessions) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ierr.ErrUnauthorized
	}
	if len(s.secret) == 0 {
		return uuid.Nil, fmt.Errorf("%w: session secret not configured", ierr.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ierr.ErrInvalidSession, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ierr.ErrInvalidSession)
	}
	return userID, nil
}

// Issue signs a session token for userID. It is used by the createsession
// command and in tests.
func (s *JWTSessions) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("session secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
