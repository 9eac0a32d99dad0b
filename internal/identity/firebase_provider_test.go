package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func mintIDToken(t *testing.T, uid string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.IDTokenClaims{
		UserID: uid,
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fakeSigner struct {
	session Session
	err     error
}

func (f *fakeSigner) SignIn(ctx context.Context, email, password string) (Session, error) {
	if f.err != nil {
		return Session{}, f.err
	}
	return f.session, nil
}

type fakeVerifier struct {
	token *fbauth.Token
	err   error
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	return f.token, f.err
}

func newFileProvider(t *testing.T, path string, signer PasswordSigner) *FirebaseProvider {
	t.Helper()
	store, err := session.NewFileStore(path)
	require.NoError(t, err)
	provider, err := NewFirebaseProvider(signer, &fakeVerifier{}, store, logger.Nop())
	require.NoError(t, err)
	return provider
}

func TestNewFirebaseProviderValidatesArguments(t *testing.T) {
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)

	_, err = NewFirebaseProvider(nil, &fakeVerifier{}, store, logger.Nop())
	assert.Error(t, err)
	_, err = NewFirebaseProvider(&fakeSigner{}, nil, store, logger.Nop())
	assert.Error(t, err)
	_, err = NewFirebaseProvider(&fakeSigner{}, &fakeVerifier{}, nil, logger.Nop())
	assert.Error(t, err)
	_, err = NewFirebaseProvider(&fakeSigner{}, &fakeVerifier{}, store, nil)
	assert.Error(t, err)
}

func TestFirebaseProviderSessionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "session.json")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	idToken := mintIDToken(t, "uid-1", exp)
	signer := &fakeSigner{session: Session{
		Principal:    Principal{UID: "uid-1", Email: "admin@example.com"},
		IDToken:      idToken,
		RefreshToken: "refresh",
	}}

	first := newFileProvider(t, path, signer)
	var seen []*Session
	stop, err := first.Watch(context.Background(), func(s *Session) { seen = append(seen, s) })
	require.NoError(t, err)
	defer stop()

	sess, err := first.SignIn(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, sess.Principal.ExpiresAt.Equal(exp), "expiry read from the id token")
	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	require.NotNil(t, seen[1])
	assert.Equal(t, "uid-1", seen[1].Principal.UID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := newFileProvider(t, path, &fakeSigner{})
	var restored *Session
	stop2, err := second.Watch(context.Background(), func(s *Session) { restored = s })
	require.NoError(t, err)
	defer stop2()

	require.NotNil(t, restored)
	assert.Equal(t, "uid-1", restored.Principal.UID)
	assert.Equal(t, "admin@example.com", restored.Principal.Email)
	assert.Equal(t, "refresh", restored.RefreshToken)
}

func TestFirebaseProviderDropsExpiredStoredSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := session.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), session.Record{
		UID:     "uid-1",
		IDToken: mintIDToken(t, "uid-1", time.Now().Add(-time.Minute)),
	}))

	provider := newFileProvider(t, path, &fakeSigner{})
	var got *Session
	called := false
	stop, err := provider.Watch(context.Background(), func(s *Session) { got, called = s, true })
	require.NoError(t, err)
	defer stop()

	assert.True(t, called)
	assert.Nil(t, got)
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "expired session file removed")
}

func TestFirebaseProviderSignOutNotifiesAndClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	signer := &fakeSigner{session: Session{
		Principal: Principal{UID: "uid-1"},
		IDToken:   mintIDToken(t, "uid-1", time.Now().Add(time.Hour)),
	}}
	provider := newFileProvider(t, path, signer)

	var last *Session
	calls := 0
	stop, err := provider.Watch(context.Background(), func(s *Session) { last, calls = s, calls+1 })
	require.NoError(t, err)

	_, err = provider.SignIn(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, provider.SignOut(context.Background()))
	assert.Nil(t, last)
	assert.Equal(t, 3, calls)

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	stop()
	_, err = provider.SignIn(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "stopped watchers receive nothing")
}

func TestFirebaseProviderSignInFailureKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	provider := newFileProvider(t, path, &fakeSigner{err: newLoginError(enums.LoginFailureBadCredentials, nil)})

	_, err := provider.SignIn(context.Background(), "admin@example.com", "wrong")
	le, ok := AsLoginError(err)
	require.True(t, ok)
	assert.Equal(t, enums.LoginFailureBadCredentials, le.Failure)
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFirebaseProviderWatchStopsOnContextCancel(t *testing.T) {
	provider := newFileProvider(t, filepath.Join(t.TempDir(), "s.json"), &fakeSigner{session: Session{Principal: Principal{UID: "uid-1"}}})
	ctx, cancel := context.WithCancel(context.Background())
	stop, err := provider.Watch(ctx, func(*Session) {})
	require.NoError(t, err)
	defer stop()

	require.Equal(t, 1, provider.changes.Len())
	cancel()
	require.Eventually(t, func() bool { return provider.changes.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFirebaseProviderVerify(t *testing.T) {
	verifier := &fakeVerifier{token: &fbauth.Token{
		UID:     "uid-9",
		Expires: 1735689600,
		Claims:  map[string]interface{}{"email": "ops@example.com"},
	}}
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	provider, err := NewFirebaseProvider(&fakeSigner{}, verifier, store, logger.Nop())
	require.NoError(t, err)

	principal, err := provider.Verify(context.Background(), " token ")
	require.NoError(t, err)
	assert.Equal(t, "uid-9", principal.UID)
	assert.Equal(t, "ops@example.com", principal.Email)
	assert.True(t, principal.ExpiresAt.Equal(time.Unix(1735689600, 0)))

	_, err = provider.Verify(context.Background(), "  ")
	assert.Error(t, err)

	verifier.err = errors.New("token expired")
	_, err = provider.Verify(context.Background(), "token")
	assert.Error(t, err)
}

func TestClassifySignInError(t *testing.T) {
	cases := []struct {
		err  error
		want enums.LoginFailure
	}{
		{&googleapi.Error{Code: 400, Message: "INVALID_PASSWORD"}, enums.LoginFailureBadCredentials},
		{&googleapi.Error{Code: 400, Message: "INVALID_LOGIN_CREDENTIALS"}, enums.LoginFailureBadCredentials},
		{&googleapi.Error{Code: 400, Message: "EMAIL_NOT_FOUND"}, enums.LoginFailureUnknownAccount},
		{&googleapi.Error{Code: 400, Message: "INVALID_EMAIL"}, enums.LoginFailureMalformedEmail},
		{&googleapi.Error{Code: 400, Message: "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled"}, enums.LoginFailureRateLimited},
		{&googleapi.Error{Code: 400, Message: "CONFIGURATION_NOT_FOUND"}, enums.LoginFailureMisconfigured},
		{&googleapi.Error{Code: 500, Message: "INTERNAL"}, enums.LoginFailureUnknown},
		{errors.New("dial tcp: timeout"), enums.LoginFailureUnknown},
	}
	for _, tc := range cases {
		got := classifySignInError(tc.err)
		assert.Equal(t, tc.want, got.Failure, "%v", tc.err)
		assert.ErrorIs(t, got, tc.err)
		assert.NotEmpty(t, got.Message)
	}
}

func TestUnconfiguredSignerIsMisconfigured(t *testing.T) {
	_, err := UnconfiguredSigner{}.SignIn(context.Background(), "admin@example.com", "secret")
	le, ok := AsLoginError(err)
	require.True(t, ok)
	assert.Equal(t, enums.LoginFailureMisconfigured, le.Failure)
}

func TestFirebaseProviderAuthenticateDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	provider := newFileProvider(t, path, &fakeSigner{session: Session{
		Principal: Principal{UID: "uid-1", Email: "admin@example.com"},
		IDToken:   mintIDToken(t, "uid-1", exp),
	}})

	calls := 0
	stop, err := provider.Watch(context.Background(), func(*Session) { calls++ })
	require.NoError(t, err)
	defer stop()

	sess, err := provider.Authenticate(context.Background(), " admin@example.com ", "secret")
	require.NoError(t, err)
	assert.True(t, sess.Principal.ExpiresAt.Equal(exp))
	assert.Equal(t, 1, calls, "only the initial delivery")
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = provider.Authenticate(context.Background(), "nope", "secret")
	le, ok := AsLoginError(err)
	require.True(t, ok)
	assert.Equal(t, enums.LoginFailureMalformedEmail, le.Failure)
}
