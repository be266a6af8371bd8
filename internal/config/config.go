package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	Debug        bool
	ProductsPath string
	DatabaseURL  string

	JWTSecret    string
	TokenTTL     time.Duration
	AuthUsername string
	AuthPassword string

	MetricsEnabled bool
	MetricsToken   string

	RateLimitPerMin int
}

// Load reads configuration from the environment with sensible defaults.
func Load() Config {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("PRODUCTS_PATH", "products.json")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "dev-secret")
	v.SetDefault("TOKEN_TTL_MINUTES", 60)
	v.SetDefault("AUTH_USERNAME", "admin")
	v.SetDefault("AUTH_PASSWORD", "admin")
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_TOKEN", "")
	v.SetDefault("RATE_LIMIT_PER_MIN", 60)

	v.AutomaticEnv()

	return Config{
		Port:         v.GetString("PORT"),
		Debug:        v.GetBool("DEBUG"),
		ProductsPath: v.GetString("PRODUCTS_PATH"),
		DatabaseURL:  v.GetString("DATABASE_URL"),

		JWTSecret:    v.GetString("JWT_SECRET"),
		TokenTTL:     time.Duration(v.GetInt("TOKEN_TTL_MINUTES")) * time.Minute,
		AuthUsername: v.GetString("AUTH_USERNAME"),
		AuthPassword: v.GetString("AUTH_PASSWORD"),

		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		MetricsToken:   v.GetString("METRICS_TOKEN"),

		RateLimitPerMin: v.GetInt("RATE_LIMIT_PER_MIN"),
	}
}
