package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/benjamonnguyen/studyplan"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := iss.Issue(studyplan.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestIssuer_Rejects(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	user := studyplan.User{ID: "u1"}

	other, err := NewIssuer("different", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(user)
	require.NoError(t, err)

	expiredIss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	expiredIss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIss.Issue(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-token",
		"empty":         "",
		"bad signature": foreign,
		"expired":       expired,
		"alg none":      none,
		"wrong alg":     hs512,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(token)
			assert.ErrorIs(t, err, studyplan.ErrAuth)
		})
	}

	t.Run("expired message", func(t *testing.T) {
		_, err := iss.Verify(expired)
		assert.Equal(t, "Token expired.", studyplan.Message(err))
	})
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestHasher(t *testing.T) {
	h := Hasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "battery staple"))

	_, err = h.Hash(strings.Repeat("x", studyplan.MaxPasswordBytes+1))
	assert.ErrorIs(t, err, studyplan.ErrValidation)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
