package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID(t *testing.T) {
	_, err := UserID(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = UserID(WithUser(context.Background(), "  "))
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	id, err := UserID(WithUser(context.Background(), "u-1"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("secret", "pennywise")
	token, err := v.Issue("user-42", time.Hour)
	require.NoError(t, err)

	sub, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret", "pennywise")
	token, err := v.Issue("user-42", time.Hour)
	require.NoError(t, err)

	other := NewVerifier("other-secret", "pennywise")
	_, err = other.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	wrongIssuer := NewVerifier("secret", "someone-else")
	_, err = wrongIssuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewVerifier("secret", "pennywise")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("user-42", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}
