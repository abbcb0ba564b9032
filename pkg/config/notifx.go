package config

import "github.com/spf13/viper"

// NotifxConfig configures the notification system.
type NotifxConfig struct {
	Provider    string `mapstructure:"provider"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	AWSRegion   string `mapstructure:"aws_region"`
	ConfigSet   string `mapstructure:"config_set"`
	Retries     int    `mapstructure:"retries"`
}

func setNotifxDefaults(v *viper.Viper) {
	v.SetDefault("notifx.provider", "console")
	v.SetDefault("notifx.from_address", "noreply@fieldops360.com")
	v.SetDefault("notifx.from_name", "FieldOps360")
	v.SetDefault("notifx.aws_region", "eu-west-3")
	v.SetDefault("notifx.config_set", "")
	v.SetDefault("notifx.retries", 3)

	_ = v.BindEnv("notifx.from_address", "NOTIFX_FROM_ADDRESS", "EMAIL_FROM_ADDRESS", "SMTP_FROM")
	_ = v.BindEnv("notifx.aws_region", "NOTIFX_AWS_REGION", "AWS_REGION")
}
