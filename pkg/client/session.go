package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// DefaultAutoLogoutAfter is how long a login stays valid on this machine.
const DefaultAutoLogoutAfter = 72 * time.Hour

// State is the persisted part of a session.
type State struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	LoginTime time.Time `json:"loginTime"`
}

// Persister stores the session between process runs. Load returns nil and
// no error when nothing is stored.
type Persister interface {
	Load() (*State, error)
	Save(State) error
	Clear() error
}

// FileStore keeps the session in a JSON file readable only by its owner.
type FileStore struct {
	path string
}

var _ Persister = (*FileStore)(nil)

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (*State, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return &st, nil
}

func (f *FileStore) Save(st State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

var _ Persister = (*MemoryStore)(nil)

func (m *MemoryStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	st := *m.state
	return &st, nil
}

func (m *MemoryStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &st
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

// Session holds the signed-in user and logs out automatically once
// AutoLogoutAfter has passed since login.
type Session struct {
	mu       sync.Mutex
	store    Persister
	after    time.Duration
	now      func() time.Time
	state    *State
	timer    *time.Timer
	gen      uint64
	onExpire []func()
	log      *logging.Logger
}

// SessionOption customises NewSession.
type SessionOption func(*Session)

// WithAutoLogoutAfter overrides DefaultAutoLogoutAfter.
func WithAutoLogoutAfter(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.after = d
		}
	}
}

// WithClock replaces time.Now for elapsed-time checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionLogger sets the logger for failures on the expiry path, which
// has no caller to return them to.
func WithSessionLogger(log *logging.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSession returns a signed-out session. A nil store keeps state in memory.
func NewSession(store Persister, opts ...SessionOption) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	s := &Session{store: store, after: DefaultAutoLogoutAfter, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.NewWithWriter("client-session", "warn", "text", os.Stderr)
	}
	return s
}

// Login stores the user and token and arms the expiry timer.
func (s *Session) Login(u User, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	st := State{Token: token, User: u, LoginTime: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(st); err != nil {
		return err
	}
	s.state = &st
	s.armLocked(s.after)
	return nil
}

// Logout clears the session and its storage. The expiry callbacks do not run.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

// Restore loads a stored session. It reports false when there is none or
// when it has already outlived AutoLogoutAfter, in which case it is cleared.
func (s *Session) Restore() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if st == nil || st.Token == "" {
		s.state = nil
		return false, nil
	}
	elapsed := s.now().Sub(st.LoginTime)
	if elapsed > s.after {
		return false, s.clearLocked()
	}
	s.state = st
	s.armLocked(s.after - elapsed)
	return true, nil
}

// Refresh replaces the stored profile with the one returned by fetch.
func (s *Session) Refresh(ctx context.Context, fetch func(context.Context) (User, error)) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	u, err := fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrNotAuthenticated
	}
	st := *s.state
	st.User = u
	if err := s.store.Save(st); err != nil {
		return err
	}
	s.state = &st
	return nil
}

// OnExpire registers fn to run when the timer logs the session out.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = append(s.onExpire, fn)
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ""
	}
	return s.state.Token
}

// User returns the signed-in profile.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return User{}, false
	}
	return s.state.User, true
}

// LoginTime returns when the current session started.
func (s *Session) LoginTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return time.Time{}
	}
	return s.state.LoginTime
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Close stops the expiry timer without touching storage.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) armLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(d, func() { s.expire(gen) })
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state == nil {
		s.mu.Unlock()
		return
	}
	if err := s.clearLocked(); err != nil {
		s.log.WithError(err).Warn("clear expired session")
	}
	callbacks := append([]func(){}, s.onExpire...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (s *Session) clearLocked() error {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = nil
	return s.store.Clear()
}
