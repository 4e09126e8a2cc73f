package redis

import (
	"errors"
	"time"
)

// DeployMode selects how the client connects
type DeployMode string

const (
	ModeSingle   DeployMode = "single"
	ModeSentinel DeployMode = "sentinel"
	ModeCluster  DeployMode = "cluster"
)

// Config Redis configuration
type Config struct {
	Mode DeployMode `mapstructure:"mode"`

	// Addrs is one host:port for single mode, the sentinel list for sentinel
	// mode and the seed nodes for cluster mode
	Addrs      []string `mapstructure:"addrs"`
	MasterName string   `mapstructure:"master_name"` // sentinel only

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`

	// KeyPrefix is prepended to every lock key
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DefaultConfig returns a single node config for localhost
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeSingle,
		Addrs:        []string{"localhost:6379"},
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
		KeyPrefix:    "dealer:",
	}
}

// Validate checks mode specific requirements
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("redis: at least one address is required")
	}

	switch c.Mode {
	case ModeSingle:
		if len(c.Addrs) != 1 {
			return errors.New("redis: single mode takes exactly one address")
		}
	case ModeSentinel:
		if c.MasterName == "" {
			return errors.New("redis: master_name is required in sentinel mode")
		}
	case ModeCluster:
		if c.DB != 0 {
			return errors.New("redis: cluster mode only supports db 0")
		}
	default:
		return errors.New("redis: mode must be one of single, sentinel, cluster")
	}

	if c.DB < 0 {
		return errors.New("redis: db must be >= 0")
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis: pool sizes must be >= 0")
	}
	return nil
}
