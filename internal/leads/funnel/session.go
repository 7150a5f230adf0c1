package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"leadfunnel_backend/internal/leads/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("funnel session not found")

// Contact is the identity snapshot kept on the session so calculator retries
// can re-send it when the lead record has to be recreated.
type Contact struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	LawFirm           string `json:"lawFirm,omitempty"`
	Website           string `json:"website,omitempty"`
	PracticeArea      string `json:"practiceArea,omitempty"`
	MonthlyAdSpend    string `json:"monthlyAdSpend,omitempty"`
	RequestedCallback bool   `json:"requestedCallback"`
}

// Session is the per-visitor funnel context. It lives in the session store,
// not in the lead record: the lead record is the durable artifact, the
// session is the in-flight state machine position plus enough context to
// recover when the record store degrades.
type Session struct {
	ID     string              `json:"id"`
	Stage  Stage               `json:"stage"`
	Branch metrics.Performance `json:"branch,omitempty"`

	// LeadID is set once a lead record exists. Synced is false when the
	// record only exists in the local fallback store.
	LeadID uuid.UUID `json:"leadId,omitempty"`
	Synced bool      `json:"synced"`

	Contact Contact          `json:"contact"`
	Metrics *metrics.Metrics `json:"metrics,omitempty"`

	// Video progress mirrors, used to rate-limit tick writes server-side.
	VideoMaxSeconds int       `json:"videoMaxSeconds"`
	VideoPercent    int       `json:"videoPercent"`
	LastVideoWrite  time.Time `json:"lastVideoWrite,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionStore persists funnel sessions with a sliding TTL.
type SessionStore interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON values under a key prefix.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

const sessionKeyPrefix = "funnel:session:"

// NewRedisSessionStore connects using a redis URL, the same form the rest of
// the service uses for its Redis configuration.
func NewRedisSessionStore(redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisSessionStoreWithClient(redis.NewClient(opt), ttl), nil
}

// NewRedisSessionStoreWithClient wraps an existing client, mainly for tests.
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) Put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	// Sliding expiry: reading a session keeps it alive.
	_ = r.client.Expire(ctx, sessionKeyPrefix+id, r.ttl).Err()
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

// MemorySessionStore is the fallback when no Redis URL is configured.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	session   Session
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemorySessionStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{session: *s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.expiresAt = m.now().Add(m.ttl)
	s := e.session
	return &s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
