package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Environment variables naming optional configuration files.
const (
	EnvConfigFile = "CATALOG_CONFIG"
	EnvDotenvFile = "CATALOG_DOTENV"

	defaultDotenvFile = ".env"
)

// envKeys maps recognised environment names to config paths. The DB_*,
// PORT and LOG_LEVEL names are the ones deployments of this API already use.
var envKeys = map[string]string{
	"DB_HOST":                "db.host",
	"DB_PORT":                "db.port",
	"DB_USERNAME":            "db.username",
	"DB_PASSWORD":            "db.password",
	"DB_DATABASE":            "db.database",
	"DB_SYNCHRONIZE":         "db.synchronize",
	"DB_ENABLE_SSL":          "db.ssl",
	"DB_POOL_SIZE":           "db.pool_size",
	"LOG_LEVEL":              "log_level",
	"CATALOG_LOG_FORMAT":     "log_format",
	"CATALOG_ADDR":           "addr",
	"CATALOG_STORE":          "store",
	"CATALOG_MAX_BODY_BYTES": "http.max_body_bytes",
}

// Load builds a Config by layering sources.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. dotenv file: CATALOG_DOTENV, or ./.env when present
//  3. YAML file if CATALOG_CONFIG is set
//  4. process environment
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(base, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoadConfig, err)
	}

	if err := loadDotenv(k); err != nil {
		return nil, err
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	addrSet := os.Getenv("CATALOG_ADDR") != ""
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if key == "PORT" && addrSet {
			return "", nil
		}
		return mapEnv(key, value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.k = k

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv merges KEY=VALUE pairs from a dotenv file. A missing default
// file is ignored; an explicitly named file must exist.
func loadDotenv(k *koanf.Koanf) error {
	path, explicit := os.LookupEnv(EnvDotenvFile)
	if !explicit || path == "" {
		path, explicit = defaultDotenvFile, false
	}

	raw := koanf.New(".")
	if err := raw.Load(file.Provider(path), dotenv.Parser()); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}

	for key, value := range raw.All() {
		str, ok := value.(string)
		if !ok {
			continue
		}
		if key == "PORT" && raw.Exists("CATALOG_ADDR") {
			continue
		}
		path, mapped := mapEnv(key, str)
		if path == "" {
			continue
		}
		if err := k.Set(path, mapped); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoadConfig, key, err)
		}
	}
	return nil
}

// mapEnv translates an environment entry to a config path and value.
// Unknown names return an empty path so koanf skips them.
func mapEnv(key, value string) (string, any) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "PORT" {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", nil
		}
		return "addr", ":" + value
	}
	path, ok := envKeys[key]
	if !ok {
		return "", nil
	}
	return path, value
}
