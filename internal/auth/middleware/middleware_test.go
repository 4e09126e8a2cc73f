package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/dealer-backend/internal/auth"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *auth.JWTManager, roles ...string) *gin.Engine {
	r := gin.New()
	g := r.Group("/", JWTAuth(m, logger.NewNop()))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/whoami", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id+"|"+logger.GetTenantID(c.Request.Context()))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	m := auth.NewJWTManager("secret", "dealer-backend")
	token, err := m.GenerateAccessToken("u-1", "a@b.c", "admin", "t-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "u-1|t-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"bad scheme", "Token " + token, http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(m).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := auth.NewJWTManager("secret", "dealer-backend")

	for role, want := range map[string]int{
		"admin": http.StatusOK,
		"sales": http.StatusForbidden,
		"":      http.StatusForbidden,
	} {
		token, err := m.GenerateAccessToken("u-1", "", role, "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newRouter(m, "admin").ServeHTTP(w, req)

		assert.Equal(t, want, w.Code, "role %q", role)
	}
}

func TestBuildRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		set      map[string]string
		want     string
	}{
		{"tenant", "tenant", map[string]string{ContextTenantID: "t", ContextUserID: "u"}, "rate_limit:tenant:t"},
		{"tenant falls back to user", "tenant", map[string]string{ContextUserID: "u"}, "rate_limit:user:u"},
		{"user", "user", map[string]string{ContextUserID: "u"}, "rate_limit:user:u"},
		{"anonymous", "user", nil, "rate_limit:ip:192.0.2.1"},
		{"ip", "ip", map[string]string{ContextUserID: "u"}, "rate_limit:ip:192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.set {
				c.Set(k, v)
			}
			assert.Equal(t, tt.want, buildRateLimitKey(c, tt.strategy))
		})
	}
}
