package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string

	// Exchange rate feed settings
	RatesURL      string
	RatesTimeout  time.Duration
	RatesCacheTTL time.Duration

	// Requests per period per client IP, limiter format (e.g. "100-M")
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("RATES_URL", "http://www.cbr.ru/scripts/XML_daily.asp")
	viper.SetDefault("RATES_TIMEOUT", "5s")
	viper.SetDefault("RATES_CACHE_TTL", "0s")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	cfg.RatesURL = viper.GetString("RATES_URL")

	ratesTimeout, err := time.ParseDuration(viper.GetString("RATES_TIMEOUT"))
	if err != nil {
		ratesTimeout = 5 * time.Second
		log.Printf("Warning: Invalid value for RATES_TIMEOUT. Defaulting to %s.\n", ratesTimeout)
	}
	cfg.RatesTimeout = ratesTimeout

	// Zero disables caching: every cross-currency conversion refetches the feed.
	ratesCacheTTL, err := time.ParseDuration(viper.GetString("RATES_CACHE_TTL"))
	if err != nil {
		ratesCacheTTL = 0
		log.Println("Warning: Invalid value for RATES_CACHE_TTL. Caching disabled.")
	}
	cfg.RatesCacheTTL = ratesCacheTTL

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
