// Package config loads svg2png settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file: the --config path, or svg2png.toml in the working
//     directory when present
//  3. SVG2PNG_* environment variables
//  4. Command-line flags (applied by the CLI)
//
// Example svg2png.toml:
//
//	input = "Json.txt"
//	output = "Result.json"
//	results_dir = "results"
//	strategy = "pool"
//	workers = 4
//	on_failure = "sentinel"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/matzehuels/svg2png/pkg/cache"
	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
	"github.com/matzehuels/svg2png/pkg/render"
)

// AppName names the cache directory.
const AppName = "svg2png"

// DefaultFile is the config file picked up from the working directory.
const DefaultFile = "svg2png.toml"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SVG2PNG_"

// Cache backend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds every setting of the CLI and server.
type Config struct {
	Input            string        `toml:"input" env:"INPUT"`
	Output           string        `toml:"output" env:"OUTPUT"`
	ResultsDir       string        `toml:"results_dir" env:"RESULTS_DIR"`
	CreateResultsDir bool          `toml:"create_results_dir" env:"CREATE_RESULTS_DIR"`
	Strategy         string        `toml:"strategy" env:"STRATEGY"`
	Workers          int           `toml:"workers" env:"WORKERS"`
	OnFailure        string        `toml:"on_failure" env:"ON_FAILURE"`
	FailFast         bool          `toml:"fail_fast" env:"FAIL_FAST"`
	Backend          string        `toml:"backend" env:"BACKEND"`
	Scale            float64       `toml:"scale" env:"SCALE"`
	Strict           bool          `toml:"strict" env:"STRICT"`
	ItemTimeout      time.Duration `toml:"item_timeout" env:"ITEM_TIMEOUT"`

	Cache  CacheConfig  `toml:"cache" envPrefix:"CACHE_"`
	Server ServerConfig `toml:"server" envPrefix:"SERVER_"`
}

// CacheConfig configures the rendered-PNG cache.
type CacheConfig struct {
	Enabled       bool          `toml:"enabled" env:"ENABLED"`
	Backend       string        `toml:"backend" env:"BACKEND"`
	Dir           string        `toml:"dir" env:"DIR"`
	RedisAddr     string        `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `toml:"redis_db" env:"REDIS_DB"`
	Prefix        string        `toml:"prefix" env:"PREFIX"`
	TTL           time.Duration `toml:"ttl" env:"TTL"`
}

// ServerConfig configures `svg2png serve`.
type ServerConfig struct {
	Addr         string `toml:"addr" env:"ADDR"`
	MaxBodyBytes int64  `toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	// ResultsDir enables side files for HTTP requests. Empty disables them.
	ResultsDir string `toml:"results_dir" env:"RESULTS_DIR"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Input:      "Json.txt",
		Output:     "Result.json",
		ResultsDir: "results",
		Strategy:   pipeline.DefaultStrategy,
		Workers:    pipeline.DefaultWorkers,
		OnFailure:  pipeline.DefaultOnFailure,
		Backend:    render.BackendOksvg,
		Scale:      1.0,
		Cache: CacheConfig{
			Enabled: true,
			Backend: CacheFile,
			TTL:     cache.TTLPNG,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 32 << 20,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment. An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.readEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) readEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse env")
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	for name, p := range map[string]string{"input": c.Input, "output": c.Output} {
		if err := errors.ValidatePath(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}
	if err := pipeline.ValidateStrategy(c.Strategy); err != nil {
		return err
	}
	if err := pipeline.ValidateFailurePolicy(c.OnFailure); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if !render.ValidBackends[c.Backend] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid backend: %q (must be one of: oksvg, rsvg)", c.Backend)
	}
	if c.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be positive, got %g", c.Scale)
	}
	if c.ItemTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "item_timeout must not be negative")
	}
	if !slices.Contains([]string{CacheFile, CacheRedis}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend: %q (must be one of: file, redis)", c.Cache.Backend)
	}
	if c.Cache.Enabled && c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis cache")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// PipelineOptions returns the batch options described by c.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Strategy:    c.Strategy,
		Workers:     c.Workers,
		OnFailure:   c.OnFailure,
		FailFast:    c.FailFast,
		ItemTimeout: c.ItemTimeout,
	}
}

// Renderer builds the configured rendering backend.
func (c *Config) Renderer() (render.Renderer, error) {
	return render.New(c.Backend, render.WithScale(c.Scale), render.WithStrict(c.Strict))
}

// OpenCache opens the configured cache. A disabled cache is a NullCache.
// The keyer is scoped when Cache.Prefix is set.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if c.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, c.Cache.Prefix)
	}
	if !c.Cache.Enabled {
		return cache.NewNullCache(), keyer, nil
	}

	switch c.Cache.Backend {
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", c.Cache.RedisAddr)
		}
		return rc, keyer, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), keyer, nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeIO, err, "open cache dir %s", dir)
		}
		return fc, keyer, nil
	}
}

// CacheDir returns the file cache directory using the XDG standard
// (~/.cache/svg2png/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
