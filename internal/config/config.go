// Package config loads pulsecheck settings: built-in defaults, then an
// optional YAML file, then environment variables. Environment variables come
// from the process first and from a .env file second.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
)

// Config is the full pulsecheck configuration.
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	CatalogFile string         `yaml:"catalog_file"`
	Env         EnvConfig      `yaml:"env"`
	Heatmap     HeatmapConfig  `yaml:"heatmap"`
	HTTP        HTTPConfig     `yaml:"http"`
	Log         LogConfig      `yaml:"log"`
	Archive     ArchiveConfig  `yaml:"archive"`
}

// DatabaseConfig describes the UrbanPulse database connection.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Schema         string        `yaml:"schema"`
	SSLMode        string        `yaml:"sslmode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

// EnvConfig drives the environment check.
type EnvConfig struct {
	File     string   `yaml:"file"`
	Required []string `yaml:"required"`
	LLMKeys  []string `yaml:"llm_keys"`
}

// HeatmapConfig points at the heatmap-data endpoint.
type HeatmapConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ArchiveConfig configures the optional MinIO report archive.
type ArchiveConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	UseSSL     bool          `yaml:"use_ssl"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:         string(database.DriverMySQL),
			Host:           "localhost",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Env: EnvConfig{
			File:     ".env",
			Required: []string{"DB_HOST", "DB_NAME", "DB_USER"},
			LLMKeys:  []string{"GROQ_API_KEY", "OPENROUTER_API_KEY"},
		},
		Heatmap: HeatmapConfig{Timeout: 10 * time.Second},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "console"},
		Archive: ArchiveConfig{Bucket: "pulsecheck-reports", PresignTTL: 24 * time.Hour},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment. envFile names a .env file whose
// values apply only where the process environment has none; a missing
// envFile is ignored.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
			}
			return Config{}, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
		}
	}

	if envFile == "" {
		envFile = cfg.Env.File
	}
	fileVals, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Env.File = envFile

	if err := cfg.ApplyEnv(chainLookup(os.LookupEnv, mapLookup(fileVals))); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from the environment variables UrbanPulse
// already uses (DB_*, HEATMAP_URL) and the PULSECHECK_* / ARCHIVE_* ones.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	str("DB_HOST", &c.Database.Host)
	str("DB_NAME", &c.Database.Name)
	str("DB_USER", &c.Database.User)
	str("DB_PASS", &c.Database.Password)
	str("DB_SCHEMA", &c.Database.Schema)
	str("HEATMAP_URL", &c.Heatmap.URL)
	str("PULSECHECK_CATALOG", &c.CatalogFile)
	str("PULSECHECK_LOG_LEVEL", &c.Log.Level)
	str("PULSECHECK_LOG_FORMAT", &c.Log.Format)
	str("PULSECHECK_HTTP_ADDR", &c.HTTP.Addr)
	str("ARCHIVE_ENDPOINT", &c.Archive.Endpoint)
	str("ARCHIVE_ACCESS_KEY", &c.Archive.AccessKey)
	str("ARCHIVE_SECRET_KEY", &c.Archive.SecretKey)
	str("ARCHIVE_BUCKET", &c.Archive.Bucket)
	str("ARCHIVE_REGION", &c.Archive.Region)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return errs.Newf(errs.ErrKindInvalidInput, "DB_PORT must be a port number, got %q", v)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("ARCHIVE_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Newf(errs.ErrKindInvalidInput, "ARCHIVE_USE_SSL must be a boolean, got %q", v)
		}
		c.Archive.UseSSL = b
	}
	return nil
}

// Validate checks the settings every database-backed command needs.
func (c Config) Validate() error {
	if _, err := database.ParseDriver(strings.ToLower(c.Database.Driver)); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		var missing []string
		if c.Database.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.Database.Name == "" {
			missing = append(missing, "DB_NAME")
		}
		if c.Database.User == "" {
			missing = append(missing, "DB_USER")
		}
		if len(missing) > 0 {
			return errs.Newf(errs.ErrKindInvalidInput, "database settings missing: %s", strings.Join(missing, ", "))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "log format must be json or console, got %q", c.Log.Format)
	}
	if c.Archive.Enabled() && c.Archive.Bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "archive bucket is required when archive endpoint is set")
	}
	return nil
}

// Connection converts the database settings into a pool configuration.
func (d DatabaseConfig) Connection() (*database.Config, error) {
	drv, err := database.ParseDriver(strings.ToLower(d.Driver))
	if err != nil {
		return nil, err
	}

	cfg := database.DefaultConfig(drv)
	cfg.DSN = d.DSN
	if d.Host != "" {
		cfg.Host = d.Host
	}
	cfg.Port = d.Port
	cfg.User = d.User
	cfg.Password = d.Password
	cfg.Database = d.Name
	cfg.Schema = d.Schema
	cfg.SSLMode = d.SSLMode
	if d.ConnectTimeout > 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if d.QueryTimeout > 0 {
		cfg.QueryTimeout = d.QueryTimeout
	}
	return cfg, nil
}

// Enabled reports whether report archiving is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

// Filestore converts the archive settings for the filestore drivers.
func (a ArchiveConfig) Filestore() *filestore.Config {
	cfg := filestore.DefaultConfig(a.Endpoint, a.AccessKey, a.SecretKey)
	cfg.UseSSL = a.UseSSL
	cfg.Region = a.Region
	cfg.DefaultBucket = a.Bucket
	return cfg
}

// --- environment helpers ---

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read env file "+path, err)
	}
	return vals, nil
}

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// chainLookup returns the first non-empty value found.
func chainLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if v, ok := l(key); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}
