package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/observer"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// PasswordSigner exchanges email and password for a session.
type PasswordSigner interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
}

// TokenVerifier is satisfied by the Firebase Admin auth client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UnconfiguredSigner rejects every sign-in as misconfigured. It stands in
// when no web API key is set so token verification still works.
type UnconfiguredSigner struct{}

func (UnconfiguredSigner) SignIn(context.Context, string, string) (Session, error) {
	return Session{}, newLoginError(enums.LoginFailureMisconfigured, errors.New("firebase api key not configured"))
}

// FirebaseProvider signs administrators in against Firebase Auth and keeps
// the resulting session in a session.Store so it survives restarts.
type FirebaseProvider struct {
	signer   PasswordSigner
	verifier TokenVerifier
	sessions session.Store
	logg     *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	loaded  bool
	current *Session

	changes observer.Hub[*Session]
}

func NewFirebaseProvider(signer PasswordSigner, verifier TokenVerifier, sessions session.Store, logg *logger.Logger) (*FirebaseProvider, error) {
	if signer == nil {
		return nil, fmt.Errorf("password signer required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &FirebaseProvider{
		signer:   signer,
		verifier: verifier,
		sessions: sessions,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Authenticate exchanges credentials for a session without persisting it or
// notifying watchers. Failures carry a *LoginError.
func (p *FirebaseProvider) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if le := checkCredentials(email, password); le != nil {
		return Session{}, asAppError(le)
	}
	sess, err := p.exchange(ctx, email, password)
	if err != nil {
		le, ok := AsLoginError(err)
		if !ok {
			le = newLoginError(enums.LoginFailureUnknown, err)
		}
		return Session{}, asAppError(le)
	}
	return sess, nil
}

func (p *FirebaseProvider) exchange(ctx context.Context, email, password string) (Session, error) {
	sess, err := p.signer.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if exp, err := auth.ExpiresAt(sess.IDToken); err == nil {
		sess.Principal.ExpiresAt = exp
	}
	return sess, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	sess, err := p.exchange(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	rec := session.Record{
		UID:          sess.Principal.UID,
		Email:        sess.Principal.Email,
		IDToken:      sess.IDToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.Principal.ExpiresAt,
		SignedInAt:   p.now().UTC(),
	}
	if err := p.sessions.Save(ctx, rec); err != nil {
		p.logg.Error(p.logg.WithPrincipal(ctx, rec.UID), "persist auth session failed", err)
	}

	p.set(&sess)
	return sess, nil
}

func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	err := p.sessions.Clear(ctx)
	p.set(nil)
	if err != nil {
		return fmt.Errorf("clear auth session: %w", err)
	}
	return nil
}

// Watch restores the persisted session on first use, then reports it and
// every later sign-in or sign-out.
func (p *FirebaseProvider) Watch(ctx context.Context, fn func(*Session)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("watch callback required")
	}
	if err := p.restore(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	cancel := p.changes.Subscribe(fn)
	current := cloneSession(p.current)
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	stop := func() { once.Do(cancel) }
	release := context.AfterFunc(ctx, stop)
	return func() {
		release()
		stop()
	}, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, idToken string) (Principal, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Principal{}, fmt.Errorf("id token is required")
	}
	token, err := p.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Principal{}, fmt.Errorf("verify id token: %w", err)
	}
	principal := Principal{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		principal.Email = email
	}
	if token.Expires > 0 {
		principal.ExpiresAt = time.Unix(token.Expires, 0).UTC()
	}
	return principal, nil
}

func (p *FirebaseProvider) restore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}

	rec, err := p.sessions.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
	case err != nil:
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "stored auth session unreadable, starting signed out")
	case auth.Expired(rec.IDToken, p.now(), 0):
		p.logg.Info(p.logg.WithPrincipal(ctx, rec.UID), "stored auth session expired")
		if clearErr := p.sessions.Clear(ctx); clearErr != nil {
			p.logg.Error(ctx, "clear expired auth session failed", clearErr)
		}
	default:
		p.current = &Session{
			Principal:    Principal{UID: rec.UID, Email: rec.Email, ExpiresAt: rec.ExpiresAt},
			IDToken:      rec.IDToken,
			RefreshToken: rec.RefreshToken,
		}
	}
	p.loaded = true
	return nil
}

func (p *FirebaseProvider) set(sess *Session) {
	p.mu.Lock()
	p.loaded = true
	p.current = cloneSession(sess)
	p.mu.Unlock()
	p.changes.Publish(cloneSession(sess))
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ToolkitSigner performs password sign-in through the Identity Toolkit API.
type ToolkitSigner struct {
	svc *identitytoolkit.Service
}

// NewToolkitSigner builds a signer keyed by the web API key. A non-empty
// emulatorHost routes calls to the Auth emulator.
func NewToolkitSigner(ctx context.Context, apiKey, emulatorHost string) (*ToolkitSigner, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("firebase api key required")
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if host := strings.TrimSpace(emulatorHost); host != "" {
		opts = append(opts,
			option.WithEndpoint("http://"+host+"/www.googleapis.com/identitytoolkit/v3/relyingparty/"),
			option.WithoutAuthentication(),
		)
	}
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &ToolkitSigner{svc: svc}, nil
}

func (s *ToolkitSigner) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := s.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Session{}, classifySignInError(err)
	}

	sess := Session{
		Principal:    Principal{UID: resp.LocalId, Email: resp.Email},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		sess.Principal.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	return sess, nil
}

// classifySignInError maps Identity Toolkit error reasons onto login
// failures. The reason is the leading token of the error message.
func classifySignInError(err error) *LoginError {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return newLoginError(enums.LoginFailureUnknown, err)
	}
	reason := gerr.Message
	if i := strings.IndexAny(reason, " :"); i >= 0 {
		reason = reason[:i]
	}
	switch reason {
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return newLoginError(enums.LoginFailureBadCredentials, err)
	case "EMAIL_NOT_FOUND":
		return newLoginError(enums.LoginFailureUnknownAccount, err)
	case "INVALID_EMAIL":
		return newLoginError(enums.LoginFailureMalformedEmail, err)
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return newLoginError(enums.LoginFailureRateLimited, err)
	case "CONFIGURATION_NOT_FOUND", "API_KEY_INVALID", "OPERATION_NOT_ALLOWED", "PROJECT_NOT_FOUND":
		return newLoginError(enums.LoginFailureMisconfigured, err)
	default:
		return newLoginError(enums.LoginFailureUnknown, err)
	}
}
