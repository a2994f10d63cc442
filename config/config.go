// Package config loads the caching service configuration from YAML.
//
//	enabled: true
//	default_ttl: 30s
//	groups: {low: 10m, high: 30s, pinned: never, legacy: 600}
//	store:
//	  driver: redis
//	  timeout: 250ms
//	  redis: {addr: localhost:6379}
//	logging: {level: info}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/breaker"
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/retry"
	"github.com/Keksclan/rawrcache/ttl"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
	DriverTiered = "tiered"
)

// File is the on-disk configuration.
type File struct {
	Enabled    bool                `yaml:"enabled"`
	DefaultTTL Duration            `yaml:"default_ttl"`
	Groups     map[string]Duration `yaml:"groups"`

	// SingleFlight de-duplicates concurrent misses on the same key.
	SingleFlight bool `yaml:"single_flight"`

	Store   StoreConfig   `yaml:"store"`
	Breaker BreakerConfig `yaml:"breaker"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects and configures the backing store.
type StoreConfig struct {
	Driver  string   `yaml:"driver"`
	Timeout Duration `yaml:"timeout"`

	Redis  RedisConfig  `yaml:"redis"`
	Memory MemoryConfig `yaml:"memory"`
	Bolt   BoltConfig   `yaml:"bolt"`
	Tiered TieredConfig `yaml:"tiered"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type MemoryConfig struct {
	MaxEntries int64 `yaml:"max_entries"`
}

type BoltConfig struct {
	Path   string `yaml:"path"`
	Bucket string `yaml:"bucket"`
}

// TieredConfig puts an in-process memory tier in front of Remote.
type TieredConfig struct {
	// Remote is the second tier driver, redis or bolt.
	Remote     string   `yaml:"remote"`
	PromoteTTL Duration `yaml:"promote_ttl"`
}

// BreakerConfig enables the store circuit breaker when Failures > 0.
type BreakerConfig struct {
	Failures    int      `yaml:"failures"`
	OpenTimeout Duration `yaml:"open_timeout"`
}

// RetryConfig enables store retries when Attempts > 1.
type RetryConfig struct {
	Attempts  int      `yaml:"attempts"`
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

// Policy returns the retry policy for store calls, or nil when retries are
// off. Only store unavailability is retried.
func (r RetryConfig) Policy() *retry.Config {
	if r.Attempts <= 1 {
		return nil
	}
	return &retry.Config{
		MaxAttempts: r.Attempts,
		BaseDelay:   r.BaseDelay.Std(),
		MaxDelay:    r.MaxDelay.Std(),
		Jitter:      0.2,
		Retryable:   retry.On(cache.ErrUnavailable),
	}
}

// Default returns the configuration used for keys absent from the file.
func Default() *File {
	return &File{
		Enabled: true,
		Store: StoreConfig{
			Driver:  DriverMemory,
			Timeout: Duration(rawrcache.DefaultStoreTimeout),
			Memory:  MemoryConfig{MaxEntries: 10_000},
			Bolt:    BoltConfig{Bucket: "cache"},
			Tiered:  TieredConfig{Remote: DriverRedis, PromoteTTL: Duration(time.Minute)},
		},
		Breaker: BreakerConfig{
			Failures:    breaker.DefaultConfig().FailureThreshold,
			OpenTimeout: Duration(breaker.DefaultConfig().OpenTimeout),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data on top of Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate reports every problem in f, joined.
func (f *File) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	for name := range f.Groups {
		if name == "" {
			bad("groups: empty group name")
		}
	}

	switch f.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if f.Store.Redis.Addr == "" {
			bad("store.redis.addr is required for the redis driver")
		}
	case DriverBolt:
		if f.Store.Bolt.Path == "" {
			bad("store.bolt.path is required for the bolt driver")
		}
	case DriverTiered:
		switch f.Store.Tiered.Remote {
		case DriverRedis:
			if f.Store.Redis.Addr == "" {
				bad("store.redis.addr is required for the tiered redis remote")
			}
		case DriverBolt:
			if f.Store.Bolt.Path == "" {
				bad("store.bolt.path is required for the tiered bolt remote")
			}
		default:
			bad("store.tiered.remote %q: want redis or bolt", f.Store.Tiered.Remote)
		}
	default:
		bad("store.driver %q: want memory, redis, bolt or tiered", f.Store.Driver)
	}
	if f.Store.Driver == DriverMemory || f.Store.Driver == DriverTiered {
		if f.Store.Memory.MaxEntries <= 0 {
			bad("store.memory.max_entries must be positive")
		}
	}

	if f.Breaker.Failures < 0 {
		bad("breaker.failures must not be negative")
	}
	if f.Retry.Attempts < 0 {
		bad("retry.attempts must not be negative")
	}
	if _, err := zerolog.ParseLevel(f.Logging.Level); err != nil {
		bad("logging.level %q", f.Logging.Level)
	}
	if f.Logging.Format != "console" && f.Logging.Format != "json" {
		bad("logging.format %q: want console or json", f.Logging.Format)
	}
	return errors.Join(errs...)
}

// Settings converts f into service settings.
func (f *File) Settings() rawrcache.Settings {
	s := rawrcache.Settings{
		Enabled: f.Enabled,
		TTL:     ttl.Policy{Default: f.DefaultTTL.Std()},
	}
	if len(f.Groups) > 0 {
		s.TTL.Groups = make(map[string]time.Duration, len(f.Groups))
		for name, d := range f.Groups {
			s.TTL.Groups[name] = d.Std()
		}
	}
	return s
}

// Options returns the service options described by f, logger included.
func (f *File) Options(w io.Writer) []rawrcache.Option {
	opts := []rawrcache.Option{
		rawrcache.WithSettings(f.Settings()),
		rawrcache.WithStoreTimeout(f.Store.Timeout.Std()),
		rawrcache.WithLogger(f.Logger(w)),
		rawrcache.WithWarnLimit(1, 5),
	}
	if f.Breaker.Failures > 0 {
		opts = append(opts, rawrcache.WithBreaker(breaker.Config{
			FailureThreshold:   f.Breaker.Failures,
			OpenTimeout:        f.Breaker.OpenTimeout.Std(),
			HalfOpenMaxSuccess: 1,
		}))
	}
	if p := f.Retry.Policy(); p != nil {
		opts = append(opts, rawrcache.WithRetry(*p))
	}
	if f.SingleFlight {
		opts = append(opts, rawrcache.WithSingleFlight())
	}
	return opts
}

// Logger builds a zerolog logger writing to w at the configured level.
// Console format renders human readable lines.
func (f *File) Logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(f.Logging.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if f.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "rawrcache").Logger()
}
