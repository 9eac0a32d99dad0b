package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when nothing has been persisted for the profile.
var ErrNoSession = errors.New("no stored session")

// Record is the persisted form of a signed-in auth session.
type Record struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	SignedInAt   time.Time `json:"signed_in_at"`
}

// Store persists one session record per profile.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
	Clear(ctx context.Context) error
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(profile string) string
}

// Manager keeps the session record in Redis under a per-profile key.
type Manager struct {
	store   sessionStore
	keyer   sessionKeyer
	profile string
	ttl     time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	profile := strings.TrimSpace(cfg.Profile)
	if profile == "" {
		return nil, fmt.Errorf("session profile is required")
	}

	return &Manager{
		store:   client,
		keyer:   client,
		profile: profile,
		ttl:     cfg.TTL,
	}, nil
}

// Save replaces the stored record.
func (m *Manager) Save(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.UID) == "" {
		return fmt.Errorf("session uid is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return m.store.Set(ctx, m.keyer.SessionKey(m.profile), string(payload), m.ttl)
}

// Load returns the stored record or ErrNoSession.
func (m *Manager) Load(ctx context.Context) (Record, error) {
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(m.profile))
	if err != nil {
		return Record{}, wrapNotFound(err)
	}
	return decode([]byte(raw))
}

// Clear deletes the stored record. Clearing an absent session is not an error.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Del(ctx, m.keyer.SessionKey(m.profile))
}

func decode(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decoding session: %w", err)
	}
	if strings.TrimSpace(rec.UID) == "" || strings.TrimSpace(rec.IDToken) == "" {
		return Record{}, ErrNoSession
	}
	return rec, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrNoSession
	}
	return err
}
