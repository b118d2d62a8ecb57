package config

import "github.com/spf13/viper"

type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	BackendURL         string `mapstructure:"BACKEND_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	LocationTimeoutMS  int    `mapstructure:"LOCATION_TIMEOUT_MS"`
	DefaultRatePerHour int64  `mapstructure:"DEFAULT_RATE_PER_HOUR"`
	ScanCooldownMS     int    `mapstructure:"SCAN_COOLDOWN_MS"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("BACKEND_URL", "http://localhost:8000/api/v1")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("LOCATION_TIMEOUT_MS", 5000)
	viper.SetDefault("DEFAULT_RATE_PER_HOUR", 25)
	viper.SetDefault("SCAN_COOLDOWN_MS", 0)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
