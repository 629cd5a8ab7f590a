package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/caregate/caregate/internal/roles"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side record addressed by the signed session cookie.
// It is created anonymous (no tokens) when a login flow starts and becomes
// authenticated once OTP verification succeeds. Tokens are held until the
// upstream rejects one; no expiry checking happens on this side.
type Session struct {
	ID           string         `json:"id"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Role         roles.ID       `json:"role"`
	Identifier   string         `json:"identifier"`
	Login        *PendingLogin  `json:"login,omitempty"`
	Signup       *PendingSignup `json:"signup,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PendingLogin holds the phone captured between the request-OTP and
// verify-OTP steps of a login. Its presence is what puts the flow in the
// verify state; there is no separate state string to drift out of sync.
type PendingLogin struct {
	Phone       string    `json:"phone"`
	CountryCode string    `json:"country_code"`
	Staff       bool      `json:"staff"`
	RequestedAt time.Time `json:"requested_at"`
}

// PendingSignup holds the form of a staff-creation dialog between its
// request-OTP and verify steps. Cancelling the dialog discards it; nothing
// is retried.
type PendingSignup struct {
	Role        roles.ID          `json:"role"`
	Phone       string            `json:"phone"`
	CountryCode string            `json:"country_code"`
	Fields      map[string]string `json:"fields,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
}

// IsAuthenticated reports whether the session carries an access token. That
// is the whole check: a token is trusted until the upstream rejects it.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccessToken != ""
}

// NormalizeRole converts an upstream role string into its canonical
// hyphenated lowercase form (e.g. "Cluster_Head" -> "cluster-head"). Every
// role string entering a session passes through here; nothing else in the
// gateway re-normalizes.
func NormalizeRole(raw string) roles.ID {
	r := strings.ToLower(strings.TrimSpace(raw))
	r = strings.ReplaceAll(r, "_", "-")
	return roles.ID(r)
}

// Store persists sessions. Implementations must tolerate Delete on a missing
// session.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Manager wraps a Store with the session lifecycle. Every mutator persists
// immediately so a restart of the browser or the gateway observes the same
// state.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Begin creates and persists a fresh anonymous session.
func (m *Manager) Begin(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	return m.store.Save(ctx, s)
}

// SetTokens stores both tokens. An absent refresh token is stored as the
// empty string.
func (m *Manager) SetTokens(ctx context.Context, s *Session, access, refresh string) error {
	s.AccessToken = access
	s.RefreshToken = refresh
	return m.save(ctx, s)
}

// SetIdentity records the role (normalized here, at the write boundary) and
// the phone or email the user authenticated with.
func (m *Manager) SetIdentity(ctx context.Context, s *Session, rawRole, identifier string) error {
	s.Role = NormalizeRole(rawRole)
	s.Identifier = identifier
	return m.save(ctx, s)
}

// ClearTokens drops tokens, role, identifier and any pending flow state.
// Calling it on an already-clear session is a no-op that still succeeds.
func (m *Manager) ClearTokens(ctx context.Context, s *Session) error {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.Role = ""
	s.Identifier = ""
	s.Login = nil
	s.Signup = nil
	return m.save(ctx, s)
}

// SetPendingLogin records the phone awaiting OTP verification.
func (m *Manager) SetPendingLogin(ctx context.Context, s *Session, p *PendingLogin) error {
	s.Login = p
	return m.save(ctx, s)
}

// SetPendingSignup records a staff-creation dialog awaiting its OTP step.
// Passing nil discards the pending signup.
func (m *Manager) SetPendingSignup(ctx context.Context, s *Session, p *PendingSignup) error {
	s.Signup = p
	return m.save(ctx, s)
}

// Destroy removes the session entirely (logout).
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	return m.store.Delete(ctx, s.ID)
}

// MemoryStore keeps sessions in a mutex-guarded map. Used in tests and in
// single-instance deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (st *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (st *MemoryStore) Save(ctx context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := *s
	st.sessions[s.ID] = &cp
	return nil
}

func (st *MemoryStore) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	return nil
}

// RedisStore persists sessions as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return "caregate:session:" + id
}

func (st *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := st.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (st *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return st.client.Set(ctx, redisKey(s.ID), data, st.ttl).Err()
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	return st.client.Del(ctx, redisKey(id)).Err()
}
