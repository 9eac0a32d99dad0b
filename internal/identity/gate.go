package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/observer"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Status is the gate's current position and, when authenticated, who holds it.
type Status struct {
	State     enums.AuthState `json:"state"`
	Principal *Principal      `json:"principal,omitempty"`
}

// GateOptions tunes login throttling. A nil Limiter disables it.
type GateOptions struct {
	Limiter     redisclient.RateLimiter
	LoginLimit  int64
	LoginWindow time.Duration
	Now         func() time.Time
}

// Gate tracks whether an administrator is signed in and guards catalog
// mutations behind that.
type Gate struct {
	provider Provider
	logg     *logger.Logger
	opts     GateOptions

	mu     sync.Mutex
	status Status
	epoch  uint64
	expiry *time.Timer

	ready     chan struct{}
	readyOnce sync.Once

	changes observer.Hub[Status]
}

func NewGate(provider Provider, logg *logger.Logger, opts GateOptions) (*Gate, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Limiter != nil && (opts.LoginLimit <= 0 || opts.LoginWindow <= 0) {
		return nil, fmt.Errorf("login rate limit needs a positive limit and window")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{
		provider: provider,
		logg:     logg,
		opts:     opts,
		status:   Status{State: enums.AuthStateUnknown},
		ready:    make(chan struct{}),
	}, nil
}

// Start follows the provider's session notifications. The first one resolves
// the gate out of the unknown state.
func (g *Gate) Start(ctx context.Context) (stop func(), err error) {
	watchStop, err := g.provider.Watch(ctx, g.resolve)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "watch auth session")
	}
	return func() {
		watchStop()
		g.mu.Lock()
		g.stopTimerLocked()
		g.mu.Unlock()
	}, nil
}

// Status returns a copy of the current status.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyStatus(g.status)
}

// WaitReady blocks until the gate has resolved or ctx ends.
func (g *Gate) WaitReady(ctx context.Context) (Status, error) {
	select {
	case <-g.ready:
		return g.Status(), nil
	case <-ctx.Done():
		return g.Status(), ctx.Err()
	}
}

// Subscribe registers fn for every status transition.
func (g *Gate) Subscribe(fn func(Status)) (cancel func()) {
	return g.changes.Subscribe(fn)
}

// Login signs in with email and password. On failure the status is unchanged
// and the error carries a *LoginError.
func (g *Gate) Login(ctx context.Context, email, password string) (Principal, error) {
	email = normalizeEmail(email)
	if le := checkCredentials(email, password); le != nil {
		return Principal{}, asAppError(le)
	}

	if err := g.throttle(ctx, email); err != nil {
		return Principal{}, err
	}

	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		le, ok := AsLoginError(err)
		if !ok {
			le = newLoginError(enums.LoginFailureUnknown, err)
		}
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{"failure": le.Failure.String(), "error": err.Error()}), "admin login rejected")
		return Principal{}, asAppError(le)
	}

	g.resolve(&session)
	g.logg.Info(g.logg.WithPrincipal(ctx, session.Principal.UID), "admin signed in")
	return session.Principal, nil
}

// Logout signs out. The gate always ends anonymous; provider errors are
// still returned.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.provider.SignOut(ctx)
	g.resolve(nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign out")
	}
	return nil
}

// Authorize returns the principal allowed to mutate the catalog.
func (g *Gate) Authorize() (Principal, error) {
	g.mu.Lock()
	status := copyStatus(g.status)
	g.mu.Unlock()

	switch status.State {
	case enums.AuthStateAuthenticated:
		if status.Principal.Expired(g.opts.Now()) {
			g.resolve(nil)
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return *status.Principal, nil
	case enums.AuthStateAnonymous:
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	default:
		return Principal{}, pkgerrors.New(pkgerrors.CodeStateConflict, "session not resolved")
	}
}

func (g *Gate) throttle(ctx context.Context, email string) error {
	if g.opts.Limiter == nil {
		return nil
	}
	scope := "login:email:" + strings.ToLower(email)
	allowed, _, err := g.opts.Limiter.FixedWindowAllow(ctx, scope, g.opts.LoginLimit, g.opts.LoginWindow)
	if err != nil {
		g.logg.Error(ctx, "login rate limit check failed", err)
		return nil
	}
	if !allowed {
		return asAppError(newLoginError(enums.LoginFailureRateLimited, nil))
	}
	return nil
}

// resolve moves the gate to the state implied by session, arming the expiry
// timer for authenticated sessions.
func (g *Gate) resolve(session *Session) {
	now := g.opts.Now()

	g.mu.Lock()
	g.epoch++
	g.stopTimerLocked()

	next := Status{State: enums.AuthStateAnonymous}
	if session != nil && !session.Principal.Expired(now) {
		principal := session.Principal
		next = Status{State: enums.AuthStateAuthenticated, Principal: &principal}
		if !principal.ExpiresAt.IsZero() {
			epoch := g.epoch
			g.expiry = time.AfterFunc(principal.ExpiresAt.Sub(now), func() { g.expire(epoch) })
		}
	}
	changed := !sameStatus(g.status, next)
	g.status = next
	g.mu.Unlock()

	g.readyOnce.Do(func() { close(g.ready) })
	if changed {
		g.changes.Publish(copyStatus(next))
	}
}

func (g *Gate) expire(epoch uint64) {
	g.mu.Lock()
	if epoch != g.epoch || g.status.State != enums.AuthStateAuthenticated {
		g.mu.Unlock()
		return
	}
	g.epoch++
	g.expiry = nil
	g.status = Status{State: enums.AuthStateAnonymous}
	g.mu.Unlock()

	g.logg.Info(context.Background(), "admin session expired")
	g.changes.Publish(Status{State: enums.AuthStateAnonymous})
}

func (g *Gate) stopTimerLocked() {
	if g.expiry != nil {
		g.expiry.Stop()
		g.expiry = nil
	}
}

func copyStatus(s Status) Status {
	if s.Principal != nil {
		p := *s.Principal
		s.Principal = &p
	}
	return s
}

func sameStatus(a, b Status) bool {
	if a.State != b.State {
		return false
	}
	if a.Principal == nil || b.Principal == nil {
		return a.Principal == b.Principal
	}
	return *a.Principal == *b.Principal
}
