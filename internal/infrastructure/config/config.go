package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers understood by the database package.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application. It is built once by
// Load and treated as read-only afterwards.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Todos    TodosConfig    `mapstructure:"todos"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Title   string `mapstructure:"title"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TodosConfig configures the static todo listing service.
type TodosConfig struct {
	Port int `mapstructure:"port"`
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	return load(viper.New(), true)
}

// LoadTodos is Load for the todo listing service, which has no database and
// so does not require DATABASE_URL.
func LoadTodos() (*Config, error) {
	_ = godotenv.Load()

	return load(viper.New(), false)
}

func load(v *viper.Viper, requireDB bool) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Debug {
		cfg.Logger.Level = "debug"
	}

	if err := validateConfig(&cfg, requireDB); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.title", "Task Management API")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults; the URL has none on purpose
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("todos.port", 8001)
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		// App
		"app.title":   "API_TITLE",
		"app.version": "API_VERSION",
		"app.debug":   "DEBUG",

		// Server
		"server.port":             "PORT",
		"server.host":             "HOST",
		"server.read_timeout":     "SERVER_READ_TIMEOUT",
		"server.write_timeout":    "SERVER_WRITE_TIMEOUT",
		"server.idle_timeout":     "SERVER_IDLE_TIMEOUT",
		"server.request_timeout":  "SERVER_REQUEST_TIMEOUT",
		"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

		// Database
		"database.url":                "DATABASE_URL",
		"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
		"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
		"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
		"database.conn_max_idle_time": "DB_CONN_MAX_IDLE_TIME",

		// Logger
		"logger.level":  "LOG_LEVEL",
		"logger.format": "LOG_FORMAT",

		"security.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
		"metrics.enabled":               "ENABLE_METRICS",
		"todos.port":                    "TODOS_PORT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config, requireDB bool) error {
	if requireDB {
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}

		if _, _, err := cfg.Database.Driver(); err != nil {
			return err
		}
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Todos.Port <= 0 || cfg.Todos.Port > 65535 {
		return fmt.Errorf("todos port must be between 1 and 65535")
	}

	return nil
}

// Driver returns the database/sql driver name and the data source name for
// the configured URL.
func (cfg *DatabaseConfig) Driver() (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return DriverPostgres, cfg.URL, nil
	case strings.HasPrefix(cfg.URL, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(cfg.URL, "sqlite://")), nil
	case strings.HasPrefix(cfg.URL, "file:"):
		return DriverSQLite, sqliteDSN(cfg.URL), nil
	default:
		return "", "", fmt.Errorf("unsupported database URL scheme in %q", cfg.Redacted())
	}
}

// sqliteDSN makes writers on separate connections wait for the lock instead
// of failing with SQLITE_BUSY. Immediate transactions take the write lock at
// BEGIN, so a read-then-write transaction never has to upgrade it.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Redacted returns the URL with any password removed, suitable for logs.
func (cfg *DatabaseConfig) Redacted() string {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.User == nil {
		return cfg.URL
	}
	return u.Redacted()
}

// Host returns the database host for startup logging, or "local" for files.
func (cfg *DatabaseConfig) Host() string {
	if driver, _, _ := cfg.Driver(); driver != DriverPostgres {
		return "local"
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return "local"
	}
	return u.Host
}

// Address returns the listen address of the task API.
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Address returns the listen address of the todo service.
func (cfg *TodosConfig) Address(host string) string {
	return fmt.Sprintf("%s:%d", host, cfg.Port)
}
