// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Config is built once at startup by Load and passed explicitly to the
//     components that need it. There is no package-level configuration state.
//   - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log record encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// Store selects the resource store backend: postgres or memory.
	Store string `koanf:"store"`

	DB   DB   `koanf:"db"`
	HTTP HTTP `koanf:"http"`

	k *koanf.Koanf
}

// DB holds the relational backend settings.
type DB struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Synchronize creates the catalog tables at startup when they are missing.
	Synchronize bool `koanf:"synchronize"`

	// SSL enables TLS to the database without certificate verification.
	SSL bool `koanf:"ssl"`

	// PoolSize bounds concurrent connections; callers beyond it wait.
	PoolSize int `koanf:"pool_size"`
}

// HTTP holds request handling limits.
type HTTP struct {
	// MaxBodyBytes caps request bodies read by create handlers.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "debug",
		LogFormat: "text",
		Addr:      ":3000",
		Store:     StorePostgres,
		DB: DB{
			Host:     "localhost",
			Port:     5432,
			Database: "postgres",
			PoolSize: 10,
		},
		HTTP: HTTP{
			MaxBodyBytes: 1 << 20,
		},
	}
}

// DSN renders the lib/pq connection string for the configured database.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.DB.Host + ":" + strconv.Itoa(c.DB.Port),
		Path:   "/" + c.DB.Database,
	}
	if c.DB.Username != "" {
		if c.DB.Password != "" {
			u.User = url.UserPassword(c.DB.Username, c.DB.Password)
		} else {
			u.User = url.User(c.DB.Username)
		}
	}
	q := url.Values{}
	if c.DB.SSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Get returns the merged value stored at a dot-separated path such as
// "db.host". Unknown paths fail with ErrKeyNotFound.
func (c *Config) Get(path string) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrKeyNotFound)
	}
	if c.k == nil || !c.k.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}
	return c.k.Get(path), nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StorePostgres && c.Store != StoreMemory:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StorePostgres, StoreMemory, c.Store)
	case c.DB.PoolSize <= 0:
		return fmt.Errorf("%w: db.pool_size must be positive", ErrInvalidConfig)
	case c.HTTP.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: http.max_body_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
