package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Platform DatabaseConfig `mapstructure:"platform_db"`
	TenantDB TenantDBConfig `mapstructure:"tenant_db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Notifx   NotifxConfig   `mapstructure:"notifx"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Version  string `mapstructure:"version"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// IsProduction reports whether the service runs with production guarantees.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production") || strings.EqualFold(a.Env, "prod")
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
	BodyLimit       int           `mapstructure:"body_limit"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads defaults, an optional file named by CONFIG_FILE and the
// environment, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindLegacyEnv(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fieldops360-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	setDatabaseDefaults(v)
	setAuthDefaults(v)
	setNotifxDefaults(v)
}

// bindLegacyEnv keeps the variable names used by existing deployments.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.env", "APP_ENV", "NODE_ENV")
	_ = v.BindEnv("app.log_level", "APP_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.cors_origins", "SERVER_CORS_ORIGINS", "CORS_ORIGINS")
	_ = v.BindEnv("tenant_db.user", "TENANT_DB_USER", "DB_USER")
	_ = v.BindEnv("tenant_db.password", "TENANT_DB_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("platform_db.url", "PLATFORM_DB_URL", "PLATFORM_DATABASE_URL")
	_ = v.BindEnv("auth.jwt.private_key_path", "AUTH_JWT_PRIVATE_KEY_PATH", "JWT_PRIVATE_KEY_PATH")
	_ = v.BindEnv("auth.jwt.public_key_path", "AUTH_JWT_PUBLIC_KEY_PATH", "JWT_PUBLIC_KEY_PATH")
	_ = v.BindEnv("auth.jwt.access_token_ttl", "AUTH_JWT_ACCESS_TOKEN_TTL", "JWT_ACCESS_TTL")
}

// Validate rejects values the service cannot run with and clamps the ones
// that have a safe floor.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Platform.URL == "" && c.Platform.Host == "" {
		errs = append(errs, errors.New("platform_db.url or platform_db.host is required"))
	}
	if c.Auth.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.jwt.access_token_ttl must be positive"))
	}
	if c.Auth.Password.BcryptCost < 4 || c.Auth.Password.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.password.bcrypt_cost %d out of range 4..31", c.Auth.Password.BcryptCost))
	}
	if c.Auth.Lockout.MaxAttempts < 1 {
		errs = append(errs, errors.New("auth.lockout.max_attempts must be at least 1"))
	}
	if c.Auth.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("auth.lockout.duration must be positive"))
	}
	if c.Auth.Reset.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.reset.token_ttl must be positive"))
	}

	if c.Auth.RefreshTokenBytes < MinRefreshTokenBytes {
		c.Auth.RefreshTokenBytes = MinRefreshTokenBytes
	}
	// Hex doubles the length and bcrypt reads at most 72 bytes.
	if c.Auth.RefreshTokenBytes > MaxRefreshTokenBytes {
		errs = append(errs, fmt.Errorf("auth.refresh_token_bytes %d exceeds %d", c.Auth.RefreshTokenBytes, MaxRefreshTokenBytes))
	}

	switch c.Notifx.Provider {
	case "console", "ses":
	default:
		errs = append(errs, fmt.Errorf("notifx.provider %q must be console or ses", c.Notifx.Provider))
	}

	return errors.Join(errs...)
}
