package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triviaarena/internal/domain"
)

func signToken(t *testing.T, key string, c claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier_Verify_Valid(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	tok := signToken(t, "test-secret", claims{
		Uid:  "uid-1",
		Name: "Ada",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	got, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.Uid)
	assert.Equal(t, "Ada", got.DisplayName)
}

func TestJWTVerifier_Verify_WrongKey(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	tok := signToken(t, "other-secret", claims{Uid: "uid-1"})

	_, err := v.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestJWTVerifier_Verify_Expired(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	tok := signToken(t, "test-secret", claims{
		Uid: "uid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := v.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestJWTVerifier_Verify_MissingUid(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	tok := signToken(t, "test-secret", claims{})

	_, err := v.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
