// Package auth identifies the acting reviewer from bearer tokens.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Ensure Verifier implements ActorVerifier
var _ driven.ActorVerifier = (*Verifier)(nil)

// maxActorLength bounds the subject recorded in audit columns.
const maxActorLength = 200

// Verifier checks HS256 tokens and returns their subject as the actor.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

// NewVerifier creates a verifier for tokens signed with secret
func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{secret: []byte(secret)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyActor validates token and returns its sub claim
func (v *Verifier) VerifyActor(token string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	actor := strings.TrimSpace(claims.Subject)
	if actor == "" || len(actor) > maxActorLength {
		return "", fmt.Errorf("%w: token subject missing or too long", domain.ErrUnauthorized)
	}
	return actor, nil
}

// IssueToken signs a token for actor. Used by tooling and tests.
func (v *Verifier) IssueToken(actor string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   actor,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
