package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long a cached back-office session is reused
// before a fresh login is performed.
const DefaultSessionTTL = 15 * time.Minute

// Cookie is the serializable subset of an HTTP cookie needed to replay a
// back-office session on later requests.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionState is a cached login: the cookies returned by the back-office
// and the moment they were obtained.
type SessionState struct {
	Cookies    []Cookie  `json:"cookies"`
	ObtainedAt time.Time `json:"obtained_at"`
}

// SessionStore holds the shared session state. The back-office treats the
// cookie as a bearer credential, not a mutex, so concurrent use of one cached
// session is intended; a refresh race simply means two logins both succeed
// and the last write wins.
type SessionStore interface {
	// Get returns the cached state, or nil when none is cached.
	Get(ctx context.Context) (*SessionState, error)
	Put(ctx context.Context, state *SessionState) error
}

// MemorySessionStore keeps the session in process memory. Lock-free: an
// atomic pointer gives get-or-refresh semantics without a mutex.
type MemorySessionStore struct {
	state atomic.Pointer[SessionState]
}

func NewMemorySessionStore() *MemorySessionStore { return &MemorySessionStore{} }

func (s *MemorySessionStore) Get(ctx context.Context) (*SessionState, error) {
	return s.state.Load(), nil
}

func (s *MemorySessionStore) Put(ctx context.Context, state *SessionState) error {
	s.state.Store(state)
	return nil
}

// RedisSessionStore shares the session across server instances. The Redis
// key expires with the session TTL so Get never returns a stale login.
type RedisSessionStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, key: "bol:session", ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context) (*SessionState, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, state *SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, raw, s.ttl).Err()
}

// Session performs the credential login against the back-office and caches
// the resulting cookies through a SessionStore.
type Session struct {
	loginURL   string
	username   string
	password   string
	store      SessionStore
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewSession builds a Session. The store is injected so tests can use a fake
// and deployments can pick the in-memory or the Redis implementation.
func NewSession(loginURL, username, password string, store SessionStore, ttl time.Duration, httpClient *http.Client) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		loginURL:   loginURL,
		username:   username,
		password:   password,
		store:      store,
		ttl:        ttl,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Acquire returns valid session cookies, logging in when the cached session
// is missing or older than the TTL.
func (s *Session) Acquire(ctx context.Context) ([]Cookie, error) {
	state, err := s.store.Get(ctx)
	if err == nil && state != nil && s.now().Sub(state.ObtainedAt) < s.ttl {
		return state.Cookies, nil
	}
	return s.login(ctx)
}

func (s *Session) login(ctx context.Context) ([]Cookie, error) {
	form := url.Values{}
	form.Set("username", s.username)
	form.Set("password", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: login: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: login returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var cookies []Cookie
	for _, c := range resp.Cookies() {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	if len(cookies) == 0 {
		return nil, ErrUpstreamAuth
	}

	state := &SessionState{Cookies: cookies, ObtainedAt: s.now()}
	if err := s.store.Put(ctx, state); err != nil {
		// The login itself succeeded; a store failure only means the next
		// caller logs in again.
		return cookies, nil
	}
	return cookies, nil
}
