package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	MinRefreshTokenBytes = 32
	MaxRefreshTokenBytes = 36
)

type AuthConfig struct {
	JWT               JWTConfig      `mapstructure:"jwt"`
	Password          PasswordConfig `mapstructure:"password"`
	Lockout           LockoutConfig  `mapstructure:"lockout"`
	Reset             ResetConfig    `mapstructure:"reset"`
	RefreshTokenBytes int            `mapstructure:"refresh_token_bytes"`
}

// JWTConfig points at the RS256 key pair. Inline PEM wins over paths.
type JWTConfig struct {
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPEM  string        `mapstructure:"private_key_pem"`
	PublicKeyPEM   string        `mapstructure:"public_key_pem"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type LockoutConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Duration    time.Duration `mapstructure:"duration"`
}

type ResetConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

func setAuthDefaults(v *viper.Viper) {
	v.SetDefault("auth.jwt.private_key_path", "./keys/private.pem")
	v.SetDefault("auth.jwt.public_key_path", "./keys/public.pem")
	v.SetDefault("auth.jwt.private_key_pem", "")
	v.SetDefault("auth.jwt.public_key_pem", "")
	v.SetDefault("auth.jwt.issuer", "fieldops360-auth")
	v.SetDefault("auth.jwt.audience", "fieldops360-api")
	v.SetDefault("auth.jwt.access_token_ttl", 15*time.Minute)

	v.SetDefault("auth.password.bcrypt_cost", 10)
	v.SetDefault("auth.lockout.max_attempts", 5)
	v.SetDefault("auth.lockout.duration", 30*time.Minute)
	v.SetDefault("auth.reset.token_ttl", time.Hour)
	v.SetDefault("auth.refresh_token_bytes", 32)
}
