package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/core/auth"
	"go-gin-gorm-crm/internal/domain"
)

type memBackend struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemBackend() *memBackend { return &memBackend{recs: map[string]Record{}} }

func (b *memBackend) Load(_ context.Context, id string) (*Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.recs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (b *memBackend) Save(_ context.Context, rec *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs[rec.ID] = *rec
	return nil
}

func (b *memBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.recs, id)
	return nil
}

func (b *memBackend) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for id, r := range b.recs {
		if !now.Before(r.ExpiresAt) {
			delete(b.recs, id)
			n++
		}
	}
	return n, nil
}

func (b *memBackend) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recs)
}

type fixture struct {
	now     time.Time
	backend *memBackend
	mgr     *Manager
}

func newFixture(secure bool) *fixture {
	f := &fixture{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), backend: newMemBackend()}
	clock := func() time.Time { return f.now }
	codec := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "crm", Now: clock}
	store := NewStore(f.backend, codec, StoreOptions{TTL: 24 * time.Hour, Secure: secure, Now: clock})
	f.mgr = NewManager(store, "crm_session")
	return f
}

var alice = domain.Caller{ID: 7, Username: "alice", Name: "Alice", Role: domain.RoleUser}

func (f *fixture) login(t *testing.T, c domain.Caller, cookies ...*http.Cookie) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	for _, ck := range cookies {
		r.AddCookie(ck)
	}
	require.NoError(t, f.mgr.Login(w, r, c))
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "crm_session" {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (f *fixture) caller(t *testing.T, ck *http.Cookie) (domain.Caller, bool) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if ck != nil {
		r.AddCookie(ck)
	}
	c, ok, err := f.mgr.Caller(r)
	require.NoError(t, err)
	return c, ok
}

func TestManager_LoginThenCaller(t *testing.T) {
	f := newFixture(false)
	ck := f.login(t, alice)

	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 24*3600, ck.MaxAge)

	got, ok := f.caller(t, ck)
	require.True(t, ok)
	assert.Equal(t, alice, got)
}

func TestManager_SecureCookie(t *testing.T) {
	f := newFixture(true)
	ck := f.login(t, alice)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
}

func TestManager_Anonymous(t *testing.T) {
	f := newFixture(false)
	_, ok := f.caller(t, nil)
	assert.False(t, ok)

	_, ok = f.caller(t, &http.Cookie{Name: "crm_session", Value: "tampered"})
	assert.False(t, ok)
}

func TestManager_Logout(t *testing.T) {
	f := newFixture(false)
	ck := f.login(t, alice)
	require.Equal(t, 1, f.backend.len())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(ck)
	require.NoError(t, f.mgr.Logout(w, r))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
	assert.Equal(t, 0, f.backend.len())

	_, ok := f.caller(t, ck)
	assert.False(t, ok)
}

func TestManager_AbsoluteExpiry(t *testing.T) {
	f := newFixture(false)
	ck := f.login(t, alice)

	f.now = f.now.Add(23 * time.Hour)
	_, ok := f.caller(t, ck)
	assert.True(t, ok)

	f.now = f.now.Add(time.Hour)
	_, ok = f.caller(t, ck)
	assert.False(t, ok)
}

func TestManager_LoginRotatesSession(t *testing.T) {
	f := newFixture(false)
	first := f.login(t, alice)
	second := f.login(t, alice, first)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, f.backend.len())

	_, ok := f.caller(t, first)
	assert.False(t, ok)
	_, ok = f.caller(t, second)
	assert.True(t, ok)
}

func TestCleanup_RunOnce(t *testing.T) {
	f := newFixture(false)
	f.login(t, alice)
	f.login(t, domain.Caller{ID: 8, Username: "bob", Name: "Bob", Role: domain.RoleAdmin})

	w := NewCleanup(f.mgr, zap.NewNop(), time.Minute)
	assert.Equal(t, int64(0), w.RunOnce())

	f.now = f.now.Add(25 * time.Hour)
	assert.Equal(t, int64(2), w.RunOnce())
	assert.Equal(t, 0, f.backend.len())
}

func TestCleanup_StartStop(t *testing.T) {
	f := newFixture(false)
	w := NewCleanup(f.mgr, zap.NewNop(), 10*time.Millisecond)
	w.Start()
	w.Stop()
}
