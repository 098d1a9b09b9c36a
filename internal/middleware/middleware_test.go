package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jsr_backend/internal/model"
	"jsr_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGate 按令牌字面值返回固定主体
type stubGate map[string]util.Authenticated

func (g stubGate) Authenticate(_ context.Context, token string) (util.Authenticated, error) {
	if token == "" {
		return util.Authenticated{}, util.ErrNotAuthenticated
	}
	if token == "boom" {
		return util.Authenticated{}, errors.New("database down")
	}
	if p, ok := g[token]; ok {
		return p, nil
	}
	return util.Authenticated{}, util.ErrInvalidToken
}

var gate = stubGate{
	"user":  {ID: "u1", Email: "u1@example.com", Role: model.RoleUser},
	"admin": {ID: "a1", Email: "a1@example.com", Role: model.RoleAdmin},
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func whoami(c *gin.Context) {
	switch p := util.GetPrincipal(c).(type) {
	case util.Authenticated:
		c.String(http.StatusOK, p.ID)
	default:
		c.String(http.StatusOK, "anonymous")
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/required", AuthMiddleware(gate), whoami)
	r.GET("/optional", TryAuthMiddleware(gate), whoami)
	r.GET("/admin", AuthMiddleware(gate), AdminOnly(), whoami)

	tests := []struct {
		name  string
		path  string
		token string
		code  int
		body  string
		err   string
	}{
		{"required ok", "/required", "user", http.StatusOK, "u1", ""},
		{"required missing", "/required", "", http.StatusUnauthorized, "", "NOT_AUTHENTICATED"},
		{"required invalid", "/required", "nope", http.StatusUnauthorized, "", "INVALID_TOKEN"},
		{"gate failure", "/required", "boom", http.StatusInternalServerError, "", "SERVER_ERROR"},
		{"optional anonymous", "/optional", "", http.StatusOK, "anonymous", ""},
		{"optional invalid", "/optional", "nope", http.StatusOK, "anonymous", ""},
		{"optional user", "/optional", "user", http.StatusOK, "u1", ""},
		{"admin ok", "/admin", "admin", http.StatusOK, "a1", ""},
		{"admin forbidden", "/admin", "user", http.StatusForbidden, "", "NOT_AUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.path, tt.token)
			assert.Equal(t, tt.code, w.Code)
			if tt.err != "" {
				assert.Equal(t, tt.err, errorCode(t, w))
				return
			}
			assert.Equal(t, tt.body, w.Body.String())
		})
	}

	// 查询参数中的令牌
	w := serve(r, "/required?token=user", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

type activityRecorder struct {
	mu   sync.Mutex
	ids  []string
	done chan struct{}
}

func (a *activityRecorder) TouchLastSeen(_ context.Context, id string, _ time.Time) error {
	a.mu.Lock()
	a.ids = append(a.ids, id)
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func TestActivityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &activityRecorder{done: make(chan struct{}, 4)}
	r := gin.New()
	r.Use(ActivityMiddleware(rec))
	r.GET("/me", TryAuthMiddleware(gate), whoami)

	serve(r, "/me", "admin")
	serve(r, "/me", "")
	serve(r, "/me", "user")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("last seen was not recorded")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"u1"}, rec.ids)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(util.ContextRequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(util.HeaderRequestID))
	assert.Equal(t, "req-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.HeaderRequestID, strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	generated := w.Header().Get(util.HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, debugMode := range []bool{false, true} {
		r := gin.New()
		r.Use(Recovery(debugMode))
		r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

		w := serve(r, "/panic", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "error", body["status"])
		_, hasStack := body["stack"]
		assert.Equal(t, debugMode, hasStack)
	}
}
