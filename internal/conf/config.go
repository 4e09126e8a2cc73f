package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/minio"
	"github.com/lk2023060901/dealer-backend/internal/pkg/redis"
)

// EnvPrefix is prepended to every environment override, e.g. DEALER_STORAGE_BUCKET.
const EnvPrefix = "DEALER"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    database.Config   `mapstructure:"database"`
	Redis       redis.Config      `mapstructure:"redis"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Compression CompressionConfig `mapstructure:"compression"`
	GC          GCConfig          `mapstructure:"gc"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         logger.Config     `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// Storage drivers
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

type StorageConfig struct {
	Driver          string        `mapstructure:"driver"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKey       string        `mapstructure:"access_key"`
	SecretKey       string        `mapstructure:"secret_key"`
	SessionToken    string        `mapstructure:"session_token"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	PathStyle       bool          `mapstructure:"path_style"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	EnsureBucket    bool          `mapstructure:"ensure_bucket"`
	PublicPrefixes  []string      `mapstructure:"public_prefixes"`
	// CapacityBytes of 0 means the capacity is unknown and usage alerts are off.
	CapacityBytes int64 `mapstructure:"capacity_bytes"`
}

type CompressionConfig struct {
	MaxWidth        int `mapstructure:"max_width"`
	MaxHeight       int `mapstructure:"max_height"`
	BudgetBytes     int `mapstructure:"budget_bytes"`
	LogoBudgetBytes int `mapstructure:"logo_budget_bytes"`
}

type GCConfig struct {
	Concurrency      int           `mapstructure:"concurrency"`
	DeletesPerSecond float64       `mapstructure:"deletes_per_second"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
	AdminRole string `mapstructure:"admin_role"`
}

// LoadConfig reads path (optional) and applies DEALER_ environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20)

	db := database.DefaultConfig()
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.maxidleconns", db.MaxIdleConns)
	v.SetDefault("database.maxopenconns", db.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connmaxidletime", db.ConnMaxIdleTime)
	v.SetDefault("database.loglevel", db.LogLevel)
	v.SetDefault("database.slowthreshold", db.SlowThreshold)
	v.SetDefault("database.preparestmt", db.PrepareStmt)
	v.SetDefault("database.automigrate", true)

	rd := redis.DefaultConfig()
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.addrs", rd.Addrs)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.db", rd.DB)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)
	v.SetDefault("redis.max_retries", rd.MaxRetries)
	v.SetDefault("redis.key_prefix", rd.KeyPrefix)

	v.SetDefault("storage.driver", DriverMinIO)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.session_token", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "dealer-media")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.path_style", true)
	v.SetDefault("storage.request_timeout", 30*time.Second)
	v.SetDefault("storage.ensure_bucket", true)
	v.SetDefault("storage.public_prefixes", []string{"vehicles/", "stores/"})
	v.SetDefault("storage.capacity_bytes", 0)

	v.SetDefault("compression.max_width", 1920)
	v.SetDefault("compression.max_height", 1080)
	v.SetDefault("compression.budget_bytes", 300*1024)
	v.SetDefault("compression.logo_budget_bytes", 100*1024)

	v.SetDefault("gc.concurrency", 16)
	v.SetDefault("gc.deletes_per_second", 200.0)
	v.SetDefault("gc.lock_ttl", 30*time.Minute)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "dealer-backend")
	v.SetDefault("auth.admin_role", "admin")

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.service", lg.Service)
	v.SetDefault("log.file.filename", lg.File.Filename)
	v.SetDefault("log.file.maxsize", lg.File.MaxSize)
	v.SetDefault("log.file.maxage", lg.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)
	v.SetDefault("log.enablecaller", lg.EnableCaller)
	v.SetDefault("log.enablestacktrace", lg.EnableStacktrace)
}

// Validate checks every section
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Compression.Validate(); err != nil {
		return err
	}
	if err := c.GC.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics path must start with '/'")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case DriverMinIO, DriverS3:
	default:
		return fmt.Errorf("storage driver must be %q or %q", DriverMinIO, DriverS3)
	}
	if s.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	if s.CapacityBytes < 0 {
		return errors.New("storage capacity_bytes must be >= 0")
	}
	if s.Driver == DriverMinIO {
		if err := s.MinIO().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MinIO converts the section into a pkg/minio client config.
func (s *StorageConfig) MinIO() *minio.Config {
	lookup := minio.BucketLookupAuto
	if s.PathStyle {
		lookup = minio.BucketLookupPath
	}
	cfg := &minio.Config{
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKey,
		SecretAccessKey: s.SecretKey,
		SessionToken:    s.SessionToken,
		Region:          s.Region,
		UseSSL:          s.UseSSL,
		BucketLookup:    lookup,
		RequestTimeout:  s.RequestTimeout,
	}
	cfg.SetDefaults()
	return cfg
}

func (c *CompressionConfig) Validate() error {
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return errors.New("compression max_width and max_height must be > 0")
	}
	if c.BudgetBytes <= 0 || c.LogoBudgetBytes <= 0 {
		return errors.New("compression budgets must be > 0")
	}
	return nil
}

func (g *GCConfig) Validate() error {
	if g.Concurrency <= 0 {
		return errors.New("gc concurrency must be > 0")
	}
	if g.DeletesPerSecond < 0 {
		return errors.New("gc deletes_per_second must be >= 0")
	}
	if g.LockTTL <= 0 {
		return errors.New("gc lock_ttl must be > 0")
	}
	return nil
}
