// Package config provides the configuration structure for the vridge client.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendNATS  = "nats"
	BackendMinio = "minio"
)

// Defaults applied to fields left empty in the file.
const (
	defaultLanguage            = "KOR"
	defaultLocale              = "ko"
	defaultPollIntervalSeconds = 5
	defaultURLExpirySeconds    = 3600
	defaultURLCacheSeconds     = 600
	defaultObjectStoreBucket   = "VRIDGE_AUDIO"
	defaultNotifySubjectPrefix = "vridge.notify"
	defaultMinioRegion         = "us-east-1"
)

var (
	// ErrAPIBaseURLEmpty indicates that the API base URL is missing.
	ErrAPIBaseURLEmpty = errors.New("api base_url cannot be empty")
	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// APIConfig holds the REST API settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig selects the blob storage backend.
type StorageConfig struct {
	Backend         string `toml:"backend"`
	URLCacheSeconds int    `toml:"url_cache_seconds"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                 string `toml:"url"`
	ObjectStoreBucket   string `toml:"object_store_bucket"`
	NotifySubjectPrefix string `toml:"notify_subject_prefix"`
	PublicBaseURL       string `toml:"public_base_url"`
}

// MinioConfig holds the configuration for an S3-compatible bucket.
type MinioConfig struct {
	Endpoint         string `toml:"endpoint"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	Bucket           string `toml:"bucket"`
	Region           string `toml:"region"`
	UseSSL           bool   `toml:"use_ssl"`
	URLExpirySeconds int    `toml:"url_expiry_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir   string `toml:"base_logs_dir"`
	DataDir       string `toml:"data_dir"`
	RecordingsDir string `toml:"recordings_dir"`
	ScriptPath    string `toml:"script_path"`
}

// SessionConfig holds per-user workflow settings.
type SessionConfig struct {
	Language            string `toml:"language"`
	Locale              string `toml:"locale"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// IdentityConfig holds the identity token verification settings.
type IdentityConfig struct {
	SigningKey string `toml:"signing_key"`
}

// DeviceConfig holds the external capture and playback commands.
type DeviceConfig struct {
	RecordCommand []string `toml:"record_command"`
	PlayCommand   []string `toml:"play_command"`
}

// Config is the root configuration structure.
type Config struct {
	API      APIConfig      `toml:"api"`
	Storage  StorageConfig  `toml:"storage"`
	NATS     NATSConfig     `toml:"nats"`
	Minio    MinioConfig    `toml:"minio"`
	Paths    PathsConfig    `toml:"paths"`
	Session  SessionConfig  `toml:"session"`
	Identity IdentityConfig `toml:"identity"`
	Device   DeviceConfig   `toml:"device"`
}

// Load loads the configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finish(&cfg)
}

// LoadFile decodes the TOML file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes TOML data, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendNATS
	}

	if c.Storage.URLCacheSeconds == 0 {
		c.Storage.URLCacheSeconds = defaultURLCacheSeconds
	}

	if c.NATS.ObjectStoreBucket == "" {
		c.NATS.ObjectStoreBucket = defaultObjectStoreBucket
	}

	if c.NATS.NotifySubjectPrefix == "" {
		c.NATS.NotifySubjectPrefix = defaultNotifySubjectPrefix
	}

	if c.Minio.Region == "" {
		c.Minio.Region = defaultMinioRegion
	}

	if c.Minio.URLExpirySeconds == 0 {
		c.Minio.URLExpirySeconds = defaultURLExpirySeconds
	}

	if c.Session.Language == "" {
		c.Session.Language = defaultLanguage
	}

	if c.Session.Locale == "" {
		c.Session.Locale = defaultLocale
	}

	if c.Session.PollIntervalSeconds == 0 {
		c.Session.PollIntervalSeconds = defaultPollIntervalSeconds
	}
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ErrAPIBaseURLEmpty
	}

	switch c.Storage.Backend {
	case BackendNATS, BackendMinio:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	return nil
}

// APITimeout returns the HTTP client timeout; zero leaves the transport default.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval returns the readiness polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Session.PollIntervalSeconds) * time.Second
}

// URLExpiry returns the lifetime of presigned download URLs.
func (c *Config) URLExpiry() time.Duration {
	return time.Duration(c.Minio.URLExpirySeconds) * time.Second
}

// URLCacheTTL returns how long resolved download URLs are reused. On the
// minio backend it never exceeds the lifetime of a presigned URL.
func (c *Config) URLCacheTTL() time.Duration {
	ttl := time.Duration(c.Storage.URLCacheSeconds) * time.Second

	if c.Storage.Backend == BackendMinio && ttl > c.URLExpiry() {
		return c.URLExpiry()
	}

	return ttl
}
