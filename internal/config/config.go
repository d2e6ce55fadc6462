package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	TokenTTL               time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	PrizeQuota             float64
	DiscountEnabled        bool
	DiscountRate           float64
	DiscountCap            float64
	DiscountBase           float64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ZVMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ZVMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "72h")
	v.SetDefault("cloudinary.folder", "zvms/impressions")
	v.SetDefault("accrual.prize_quota", 10.0)
	v.SetDefault("accrual.discount", false)
	v.SetDefault("accrual.discount_rate", 1.0/3.0)
	v.SetDefault("accrual.discount_cap", 6.0)
	v.SetDefault("accrual.discount_base", 30.0)

	ttlString := v.GetString("token.ttl")
	if ttlString == "" {
		ttlString = "72h"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		TokenTTL:               ttl,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		PrizeQuota:             v.GetFloat64("accrual.prize_quota"),
		DiscountEnabled:        v.GetBool("accrual.discount"),
		DiscountRate:           v.GetFloat64("accrual.discount_rate"),
		DiscountCap:            v.GetFloat64("accrual.discount_cap"),
		DiscountBase:           v.GetFloat64("accrual.discount_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PrizeQuota <= 0 {
		cfg.PrizeQuota = 10.0
	}

	return cfg, nil
}
