package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.IssueToken("alice@example.com", time.Hour)
	require.NoError(t, err)

	actor, err := v.VerifyActor(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", actor)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("test-secret")
	other := NewVerifier("other-secret")

	expired, err := v.IssueToken("alice", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := other.IssueToken("alice", time.Hour)
	require.NoError(t, err)
	noSubject, err := v.IssueToken("  ", time.Hour)
	require.NoError(t, err)
	tooLong, err := v.IssueToken(strings.Repeat("a", maxActorLength+1), time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"no subject", noSubject},
		{"subject too long", tooLong},
		{"unexpected algorithm", hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyActor(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestVerifier_Issuer(t *testing.T) {
	v := NewVerifier("s", WithIssuer("review-ui"))
	token, err := v.IssueToken("bob", time.Hour)
	require.NoError(t, err)

	actor, err := v.VerifyActor(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", actor)

	foreign, err := NewVerifier("s", WithIssuer("someone-else")).IssueToken("bob", time.Hour)
	require.NoError(t, err)
	_, err = v.VerifyActor(foreign)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifier_Leeway(t *testing.T) {
	v := NewVerifier("s", WithLeeway(time.Minute))
	token, err := v.IssueToken("bob", -10*time.Second)
	require.NoError(t, err)

	_, err = v.VerifyActor(token)
	assert.NoError(t, err)
}
