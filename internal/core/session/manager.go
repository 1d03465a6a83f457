package session

import (
	"context"
	"net/http"
	"time"

	"go-gin-gorm-crm/internal/domain"
)

// Manager 登录、登出与解析当前调用者
type Manager struct {
	store *Store
	name  string
}

func NewManager(store *Store, cookieName string) *Manager {
	return &Manager{store: store, name: cookieName}
}

func (m *Manager) CookieName() string { return m.name }

// Login 旧会话作废后签发新会话
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, c domain.Caller) error {
	if old, err := m.store.Get(r, m.name); err == nil && old.ID != "" {
		if err := m.store.backend.Delete(r.Context(), old.ID); err != nil {
			return err
		}
	}
	sess := m.store.blank(m.name)
	sess.Values[keyUserID] = c.ID
	sess.Values[keyUsername] = c.Username
	sess.Values[keyName] = c.Name
	sess.Values[keyRole] = string(c.Role)
	return sess.Save(r, w)
}

// Logout 幂等：没有会话时只清 cookie
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		sess = m.store.blank(m.name)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Caller 未登录或会话过期时 ok=false
func (m *Manager) Caller(r *http.Request) (domain.Caller, bool, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return domain.Caller{}, false, err
	}
	c, ok := callerFrom(sess)
	return c, ok, nil
}

func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.backend.PurgeExpired(ctx, m.store.now())
}

func (m *Manager) TTL() time.Duration { return m.store.ttl }
