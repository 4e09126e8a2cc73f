package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{Logger: zap.New(core), config: DefaultConfig()}, logs
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "nil config", config: nil},
		{
			name:   "console format",
			config: &Config{Level: "debug", Format: "console", Output: "console"},
		},
		{
			name: "file output",
			config: &Config{
				Level:  "info",
				Format: "json",
				Output: "both",
				File:   FileConfig{Filename: filepath.Join(dir, "storage.log"), MaxSize: 10, MaxAge: 7, MaxBackups: 3},
			},
		},
		{
			name:    "file output without filename",
			config:  &Config{Level: "info", Format: "json", Output: "file"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
			l.Info("storage logger ready")
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "upper case level", mutate: func(c *Config) { c.Level = "WARN" }},
		{name: "invalid level", mutate: func(c *Config) { c.Level = "verbose" }, wantErr: true},
		{name: "invalid format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "invalid output", mutate: func(c *Config) { c.Output = "syslog" }, wantErr: true},
		{name: "file without max size", mutate: func(c *Config) { c.Output = "file"; c.File.MaxSize = 0 }, wantErr: true},
		{name: "file with negative backups", mutate: func(c *Config) { c.Output = "file"; c.File.MaxBackups = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	l, logs := observed()

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "admin-7")
	ctx = WithTenantID(ctx, "tenant-3")

	l.WithContext(ctx).Info("cleanup started")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "admin-7", fields["user_id"])
	assert.Equal(t, "tenant-3", fields["tenant_id"])

	assert.Same(t, l, l.WithContext(context.Background()))
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "admin-7", GetUserID(ctx))
	assert.Equal(t, "tenant-3", GetTenantID(ctx))
}

func TestFromContext(t *testing.T) {
	l, logs := observed()
	ctx := ToContext(WithRequestID(context.Background(), "req-2"), l)

	FromContext(ctx).Warn("listing degraded")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-2", logs.All()[0].ContextMap()["request_id"])
}

func TestGlobalLogger(t *testing.T) {
	l, logs := observed()
	SetGlobal(l)
	t.Cleanup(func() { SetGlobal(nil) })

	Info("snapshot written", zap.Int64("total_bytes", 42))

	require.Equal(t, 1, logs.Len())
	assert.Same(t, l, L())
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, logs := observed()

	router := gin.New()
	router.Use(GinLogger(l, "/metrics"))
	router.GET("/api/v1/admin/storage/stats", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/storage/stats", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, logs.Len())
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, logs := observed()

	router := gin.New()
	router.Use(GinRecovery(l))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
