package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"go-gin-gorm-crm/internal/core/auth"
	"go-gin-gorm-crm/internal/domain"
)

const (
	keyUserID    = "user_id"
	keyUsername  = "username"
	keyName      = "name"
	keyRole      = "role"
	keyExpiresAt = "expires_at"
)

// Store 实现 gorilla sessions.Store：cookie 里只放签名后的会话 ID，数据在 Backend
type Store struct {
	backend Backend
	codec   *auth.JWTer
	ttl     time.Duration
	now     func() time.Time

	Options *sessions.Options
}

type StoreOptions struct {
	TTL    time.Duration
	Secure bool
	Domain string
	Now    func() time.Time
}

func NewStore(backend Backend, codec *auth.JWTer, o StoreOptions) *Store {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	opts := &sessions.Options{
		Path:     "/",
		Domain:   o.Domain,
		MaxAge:   int(o.TTL.Seconds()),
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// 跨站部署需 Secure + SameSite=None
	if o.Secure {
		opts.SameSite = http.SameSiteNoneMode
	}
	return &Store{backend: backend, codec: codec, ttl: o.TTL, now: now, Options: opts}
}

func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New 解析 cookie 并加载会话；cookie 无效或会话过期时返回空的新会话
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := s.blank(name)
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return sess, nil
	}
	sid, err := s.codec.Parse(c.Value)
	if err != nil {
		return sess, nil
	}
	rec, err := s.backend.Load(r.Context(), sid)
	if err != nil {
		return sess, fmt.Errorf("load session: %w", err)
	}
	if rec == nil || !s.now().Before(rec.ExpiresAt) {
		return sess, nil
	}
	sess.ID = rec.ID
	sess.IsNew = false
	sess.Values[keyUserID] = rec.UserID
	sess.Values[keyUsername] = rec.Username
	sess.Values[keyName] = rec.Name
	sess.Values[keyRole] = string(rec.Role)
	sess.Values[keyExpiresAt] = rec.ExpiresAt
	return sess, nil
}

// Save MaxAge<0 删除会话并清 cookie；否则写入记录并下发签名 cookie。
// 已存在的会话保持原过期时间（绝对窗口）
func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options == nil {
		sess.Options = s.copyOptions()
	}
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.backend.Delete(r.Context(), sess.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	rec, err := recordFrom(sess)
	if err != nil {
		return err
	}
	now := s.now()
	exp, ok := sess.Values[keyExpiresAt].(time.Time)
	if !ok || exp.IsZero() {
		exp = now.Add(s.ttl)
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	rec.ID = sess.ID
	rec.ExpiresAt = exp
	rec.CreatedAt = now
	if err := s.backend.Save(r.Context(), rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.Values[keyExpiresAt] = exp

	tok, err := s.codec.Issue(sess.ID, exp)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	opts := *sess.Options
	opts.MaxAge = int(exp.Sub(now).Seconds())
	http.SetCookie(w, sessions.NewCookie(sess.Name(), tok, &opts))
	return nil
}

func (s *Store) blank(name string) *sessions.Session {
	sess := sessions.NewSession(s, name)
	sess.Options = s.copyOptions()
	sess.IsNew = true
	return sess
}

func (s *Store) copyOptions() *sessions.Options {
	opts := *s.Options
	return &opts
}

func recordFrom(sess *sessions.Session) (*Record, error) {
	uid, ok := sess.Values[keyUserID].(uint)
	if !ok || uid == 0 {
		return nil, errors.New("session: missing user id")
	}
	username, _ := sess.Values[keyUsername].(string)
	name, _ := sess.Values[keyName].(string)
	role, _ := sess.Values[keyRole].(string)
	return &Record{UserID: uid, Username: username, Name: name, Role: domain.Role(role)}, nil
}

func callerFrom(sess *sessions.Session) (domain.Caller, bool) {
	if sess == nil || sess.IsNew {
		return domain.Caller{}, false
	}
	rec, err := recordFrom(sess)
	if err != nil {
		return domain.Caller{}, false
	}
	return rec.Caller(), true
}
