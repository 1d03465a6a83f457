package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/transport/http/handler"
	mdw "go-gin-gorm-crm/internal/transport/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type recorder struct {
	name  string
	prio  int
	order *[]string
}

func (r recorder) Priority() int { return r.prio }

func (r recorder) MountAPI(*gin.RouterGroup) { *r.order = append(*r.order, r.name) }

type plain struct {
	name  string
	order *[]string
}

func (p plain) MountAPI(*gin.RouterGroup) { *p.order = append(*p.order, p.name) }

func TestRegistry_MountsByPriorityThenInsertion(t *testing.T) {
	var order []string
	reg := &Registry{}
	reg.Register(
		plain{name: "users", order: &order},
		recorder{name: "auth", prio: 10, order: &order},
		plain{name: "companies", order: &order},
		recorder{name: "health", prio: 0, order: &order},
	)
	reg.MountAll(gin.New().Group("/api"))
	assert.Equal(t, []string{"health", "auth", "users", "companies"}, order)
}

type staticSessions struct {
	caller *domain.Caller
	err    error
}

func (s staticSessions) Caller(*http.Request) (domain.Caller, bool, error) {
	if s.caller == nil {
		return domain.Caller{}, false, s.err
	}
	return *s.caller, true, nil
}

// whoami 回显会话解析出的用户
type whoami struct{}

func (whoami) MountAPI(g *gin.RouterGroup) {
	g.GET("/whoami", mdw.RequireAuth(), func(c *gin.Context) {
		caller, _ := mdw.CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{"username": caller.Username})
	})
}

func newTestEngine(sess staticSessions, check func(context.Context) error) *gin.Engine {
	return NewAPIEngine(Options{
		AllowOrigins:   []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 10,
		MaxInFlight:    8,
		RequestTimeout: time.Second,
		Metrics:        true,
	}, Deps{
		Logger:   zap.NewNop(),
		Sessions: sess,
		Health: &handler.Health{
			Check: check,
			Now:   func() time.Time { return time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC) },
		},
		Modules: []APIModule{whoami{}},
	})
}

func do(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestEngine_HealthOnBothPaths(t *testing.T) {
	r := newTestEngine(staticSessions{}, nil)
	for _, p := range []string{"/health", "/api/health"} {
		w := do(r, http.MethodGet, p, nil)
		require.Equal(t, http.StatusOK, w.Code, p)
		assert.Equal(t, map[string]any{"status": "ok", "timestamp": "2025-04-01T01:00:00Z"}, decode(t, w))
	}
}

func TestEngine_HealthCheckFailure(t *testing.T) {
	r := newTestEngine(staticSessions{}, func(context.Context) error { return errors.New("db down") })
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestEngine_UnknownRouteAndMethod(t *testing.T) {
	r := newTestEngine(staticSessions{}, nil)

	w := do(r, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])

	w = do(r, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "許可されていないメソッドです", decode(t, w)["error"])
}

func TestEngine_SessionCallerReachesModules(t *testing.T) {
	r := newTestEngine(staticSessions{caller: &domain.Caller{ID: 3, Username: "hanako"}}, nil)
	w := do(r, http.MethodGet, "/api/whoami", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hanako", decode(t, w)["username"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEngine_BrokenSessionIsAnonymous(t *testing.T) {
	r := newTestEngine(staticSessions{err: errors.New("bad cookie")}, nil)
	w := do(r, http.MethodGet, "/api/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEngine_CORSAllowsConfiguredOriginWithCredentials(t *testing.T) {
	r := newTestEngine(staticSessions{}, nil)

	w := do(r, http.MethodOptions, "/api/whoami", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = do(r, http.MethodOptions, "/api/whoami", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEngine_MetricsEndpoint(t *testing.T) {
	r := newTestEngine(staticSessions{}, nil)
	_ = do(r, http.MethodGet, "/health", nil)
	w := do(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
