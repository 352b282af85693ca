// Package config загружает настройки клиента и relay-сервера из YAML файла
// с переопределением через переменные окружения CONFSYNC_*.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds
const (
	TransportDir  = "dir"
	TransportS3   = "s3"
	TransportHTTP = "http"
)

// Config настройки confsync
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Sync      SyncConfig      `yaml:"sync"`
}

// DeviceConfig локальное состояние устройства
type DeviceConfig struct {
	DBPath string `yaml:"db_path"`
}

// TransportConfig корень синхронизации
type TransportConfig struct {
	Kind string     `yaml:"kind"` // dir | s3 | http
	Dir  DirConfig  `yaml:"dir"`
	HTTP HTTPConfig `yaml:"http"`
	S3   S3Config   `yaml:"s3"`
}

// DirConfig локальная или общая (Syncthing, NFS) папка
type DirConfig struct {
	Path string `yaml:"path"`
}

// S3Config бакет S3 или S3-совместимого хранилища
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	MaxRetries      uint64 `yaml:"max_retries"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// HTTPConfig relay-сервер
type HTTPConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// SyncConfig параметры цикла синхронизации
type SyncConfig struct {
	CycleTimeout     time.Duration `yaml:"cycle_timeout"`
	PublishTimeout   time.Duration `yaml:"publish_timeout"`
	WatchInterval    time.Duration `yaml:"watch_interval"` // WatchInterval период опроса в режиме watch
	CompactThreshold int           `yaml:"compact_threshold"`
	FetchParallelism int           `yaml:"fetch_parallelism"`
	MergeParallelism int           `yaml:"merge_parallelism"`
}

// ServerConfig relay-сервер
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	DBPath       string        `yaml:"db_path"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"` // TokenTTL 0 - бессрочные токены устройств
	RateWindow   time.Duration `yaml:"rate_window"`
	RateLimit    int           `yaml:"rate_limit"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// LogConfig логирование
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default возвращает настройки по умолчанию
func Default() *Config {
	return &Config{
		Device: DeviceConfig{DBPath: "confsync.db"},
		Transport: TransportConfig{
			Kind: TransportDir,
			Dir:  DirConfig{Path: "sync-root"},
			S3:   S3Config{MaxRetries: 3},
		},
		Sync: SyncConfig{
			CycleTimeout:     30 * time.Second,
			PublishTimeout:   30 * time.Second,
			WatchInterval:    time.Minute,
			CompactThreshold: 500,
			FetchParallelism: 4,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			DBPath:       "confsync-server.db",
			RateWindow:   time.Minute,
			MaxBodyBytes: 16 << 20,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load читает файл path поверх настроек по умолчанию и применяет переменные
// окружения. Пустой path означает только значения по умолчанию и окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет поля из окружения
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s=%q: %w", name, v, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s=%q: %w", name, v, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s=%q: %w", name, v, err))
				return
			}
			*dst = b
		}
	}

	str("CONFSYNC_DB", &c.Device.DBPath)

	str("CONFSYNC_TRANSPORT", &c.Transport.Kind)
	str("CONFSYNC_DIR", &c.Transport.Dir.Path)
	str("CONFSYNC_S3_BUCKET", &c.Transport.S3.Bucket)
	str("CONFSYNC_S3_REGION", &c.Transport.S3.Region)
	str("CONFSYNC_S3_ENDPOINT", &c.Transport.S3.Endpoint)
	str("CONFSYNC_S3_PREFIX", &c.Transport.S3.Prefix)
	boolean("CONFSYNC_S3_PATH_STYLE", &c.Transport.S3.UsePathStyle)
	str("CONFSYNC_RELAY_URL", &c.Transport.HTTP.URL)
	str("CONFSYNC_RELAY_TOKEN", &c.Transport.HTTP.Token)

	duration("CONFSYNC_CYCLE_TIMEOUT", &c.Sync.CycleTimeout)
	duration("CONFSYNC_PUBLISH_TIMEOUT", &c.Sync.PublishTimeout)
	duration("CONFSYNC_WATCH_INTERVAL", &c.Sync.WatchInterval)
	integer("CONFSYNC_COMPACT_THRESHOLD", &c.Sync.CompactThreshold)

	str("CONFSYNC_SERVER_ADDR", &c.Server.Addr)
	str("CONFSYNC_SERVER_DB", &c.Server.DBPath)
	str("CONFSYNC_JWT_SECRET", &c.Server.JWTSecret)
	duration("CONFSYNC_TOKEN_TTL", &c.Server.TokenTTL)
	integer("CONFSYNC_RATE_LIMIT", &c.Server.RateLimit)

	str("CONFSYNC_LOG_LEVEL", &c.Log.Level)
	str("CONFSYNC_LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case TransportDir:
		if c.Transport.Dir.Path == "" {
			return errors.New("transport.dir.path is required for dir transport")
		}
	case TransportS3:
		if c.Transport.S3.Bucket == "" {
			return errors.New("transport.s3.bucket is required for s3 transport")
		}
	case TransportHTTP:
		if c.Transport.HTTP.URL == "" {
			return errors.New("transport.http.url is required for http transport")
		}
	default:
		return fmt.Errorf("unknown transport kind %q: must be one of dir, s3, http", c.Transport.Kind)
	}

	if c.Sync.CompactThreshold < 0 {
		return errors.New("sync.compact_threshold must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format)
	}
	return nil
}

// ParseLevel переводит имя уровня в slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
}
