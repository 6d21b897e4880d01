package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	secret, err := GenerateSecureSecret()
	require.NoError(t, err)
	a, err := NewAuthenticator(secret, map[string]string{"ops": hash}, time.Hour)
	require.NoError(t, err)
	return a
}

func TestLoginAndValidate(t *testing.T) {
	a := newTestAuth(t)

	token, err := a.Login("ops", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT из трёх частей")

	claims, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
}

func TestLogin_BadCredentials(t *testing.T) {
	a := newTestAuth(t)
	_, err := a.Login("ops", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = a.Login("nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestValidate_Rejects(t *testing.T) {
	a := newTestAuth(t)
	token, err := a.Issue("ops")
	require.NoError(t, err)

	other := newTestAuth(t)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "чужая подпись")

	_, err = a.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "истёкший токен")

	ghost, err := a.Issue("ghost")
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.Validate(ghost)
	assert.ErrorIs(t, err, ErrInvalidToken, "оператор не из списка")
}

func TestNewAuthenticator_ShortSecret(t *testing.T) {
	_, err := NewAuthenticator("c2hvcnQ=", nil, 0)
	assert.Error(t, err)
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestNewAuthenticator_RejectsPlaintextOperator(t *testing.T) {
	_, err := NewAuthenticator("", map[string]string{"ops": "hunter22"}, time.Hour)
	assert.Error(t, err, "пароль открытым текстом вместо хеша")
}
