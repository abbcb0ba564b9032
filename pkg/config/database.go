package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig is the platform database holding the tenant directory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns URL when set, otherwise a postgres:// URL built from the
// individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return PostgresURL(d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// PostgresURL builds a lib/pq connection URL. Every component is escaped,
// so empty values and passwords with spaces or quotes stay in place.
func PostgresURL(host string, port int, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// TenantDBConfig holds the credentials and pool settings shared by every
// tenant store. Host, port and database name come from the tenant directory.
type TenantDBConfig struct {
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig enables the tenant lookup cache.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TenantTTL time.Duration `mapstructure:"tenant_ttl"`
}

func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("platform_db.url", "")
	v.SetDefault("platform_db.host", "localhost")
	v.SetDefault("platform_db.port", 5432)
	v.SetDefault("platform_db.user", "postgres")
	v.SetDefault("platform_db.password", "")
	v.SetDefault("platform_db.name", "fieldops_platform")
	v.SetDefault("platform_db.ssl_mode", "disable")
	v.SetDefault("platform_db.max_open_conns", 10)
	v.SetDefault("platform_db.max_idle_conns", 5)
	v.SetDefault("platform_db.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("tenant_db.user", "postgres")
	v.SetDefault("tenant_db.password", "")
	v.SetDefault("tenant_db.ssl_mode", "disable")
	v.SetDefault("tenant_db.max_open_conns", 10)
	v.SetDefault("tenant_db.max_idle_conns", 2)
	v.SetDefault("tenant_db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("tenant_db.connect_timeout", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tenant_ttl", time.Minute)
}
