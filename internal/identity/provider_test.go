package identity_test

import (
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/identity"
	"github.com/book-expert/vridge/internal/tokenstore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	return token
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

func newPrefs(t *testing.T) *tokenstore.Store {
	t.Helper()

	store, err := tokenstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestJWTProvider_SignInVerified(t *testing.T) {
	t.Parallel()

	provider := identity.NewJWTProvider(newPrefs(t), testSigningKey, newTestLogger(t))

	_, ok := provider.Current()
	assert.False(t, ok)

	token := signToken(t, testSigningKey, jwt.MapClaims{
		"sub":   "u1",
		"email": "kim@vridge.test",
		"name":  "Kim",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	got, err := provider.SignIn(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	assert.Equal(t, "kim@vridge.test", got.Email)
	assert.Equal(t, "Kim", got.Name)
	assert.Equal(t, token, got.Token)

	current, ok := provider.Current()
	require.True(t, ok)
	assert.Equal(t, got, current)
}

func TestJWTProvider_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	provider := identity.NewJWTProvider(newPrefs(t), testSigningKey, newTestLogger(t))

	_, err := provider.SignIn(signToken(t, "other-key", jwt.MapClaims{"sub": "u1"}))
	require.Error(t, err)

	_, ok := provider.Current()
	assert.False(t, ok)
}

func TestJWTProvider_UnverifiedFallsBackToUserID(t *testing.T) {
	t.Parallel()

	provider := identity.NewJWTProvider(newPrefs(t), "", newTestLogger(t))

	got, err := provider.SignIn(signToken(t, "whatever", jwt.MapClaims{"user_id": "u2"}))
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UID)
}

func TestJWTProvider_InvalidTokens(t *testing.T) {
	t.Parallel()

	provider := identity.NewJWTProvider(newPrefs(t), "", newTestLogger(t))

	_, err := provider.SignIn("")
	require.ErrorIs(t, err, identity.ErrTokenEmpty)

	_, err = provider.SignIn("not-a-jwt")
	require.Error(t, err)

	_, err = provider.SignIn(signToken(t, "k", jwt.MapClaims{"email": "x@y"}))
	require.ErrorIs(t, err, identity.ErrSubjectMissing)
}

func TestJWTProvider_RestoresAndSignsOut(t *testing.T) {
	t.Parallel()

	prefs := newPrefs(t)
	token := signToken(t, testSigningKey, jwt.MapClaims{"sub": "u1"})

	first := identity.NewJWTProvider(prefs, testSigningKey, newTestLogger(t))
	_, err := first.SignIn(token)
	require.NoError(t, err)

	restored := identity.NewJWTProvider(prefs, testSigningKey, newTestLogger(t))
	current, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", current.UID)

	require.NoError(t, restored.SignOut())

	_, ok = restored.Current()
	assert.False(t, ok)

	_, ok = identity.NewJWTProvider(prefs, testSigningKey, newTestLogger(t)).Current()
	assert.False(t, ok)
}

func TestJWTProvider_DropsStoredTokenThatNoLongerParses(t *testing.T) {
	t.Parallel()

	prefs := newPrefs(t)
	require.NoError(t, prefs.Set(identity.KeyIdentityToken, signToken(t, "rotated-key", jwt.MapClaims{"sub": "u1"})))

	provider := identity.NewJWTProvider(prefs, testSigningKey, newTestLogger(t))

	_, ok := provider.Current()
	assert.False(t, ok)

	_, err := prefs.Get(identity.KeyIdentityToken)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}
