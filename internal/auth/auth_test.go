package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret-at-least-32-bytes-long"))

	token, err := v.Generate("kim@ywstorage.co.kr", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "kim@ywstorage.co.kr", email)
}

func TestJWTVerifier_Expired(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret-at-least-32-bytes-long"))

	token, err := v.Generate("kim@ywstorage.co.kr", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret-at-least-32-bytes-long"))
	other := NewJWTVerifier([]byte("a-different-secret-32-bytes-long!"))

	token, err := v.Generate("kim@ywstorage.co.kr", time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret-at-least-32-bytes-long"))

	_, err := v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!"))
}
