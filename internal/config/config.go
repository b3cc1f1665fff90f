package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Pricing     PricingConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Competitors CompetitorsConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// PricingConfig holds the business constants of the pricing engine.
type PricingConfig struct {
	HistoryLimit        int     `mapstructure:"history_limit"`
	FairBandMultiplier  float64 `mapstructure:"fair_band_multiplier"`
	MinMarkupMultiplier float64 `mapstructure:"min_markup_multiplier"`
	ExcellentMinFactor  float64 `mapstructure:"excellent_min_factor"`
	ExcellentAvgFactor  float64 `mapstructure:"excellent_avg_factor"`
	GoodAvgFactor       float64 `mapstructure:"good_avg_factor"`
	FairAvgFactor       float64 `mapstructure:"fair_avg_factor"`
	UpdateRetries       int     `mapstructure:"update_retries"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig defines the competitor snapshot cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// CompetitorsConfig defines how competitor datasets are fetched.
type CompetitorsConfig struct {
	Provider     string
	URL          string
	Timeout      time.Duration
	Marketplaces []MarketplaceConfig
}

// MarketplaceConfig maps a payload key to its canonical source label.
type MarketplaceConfig struct {
	Key   string
	Label string
}

// LogConfig defines the slog handler.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// MetricsConfig defines where collected metrics are written when a command
// exits, in the node_exporter textfile format. An empty Textfile disables it.
type MetricsConfig struct {
	Textfile string
}

// DSN returns the PostgreSQL connection URL, or an empty string when no host is configured.
func (c DatabaseConfig) DSN() string {
	if c.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pricing.history_limit", 10)
	v.SetDefault("pricing.fair_band_multiplier", 1.05)
	v.SetDefault("pricing.min_markup_multiplier", 1.15)
	v.SetDefault("pricing.excellent_min_factor", 0.95)
	v.SetDefault("pricing.excellent_avg_factor", 0.9)
	v.SetDefault("pricing.good_avg_factor", 0.95)
	v.SetDefault("pricing.fair_avg_factor", 0.98)
	v.SetDefault("pricing.update_retries", 5)

	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "pricescout")
	v.SetDefault("redis.ttl", 6*time.Hour)

	v.SetDefault("competitors.provider", "http")
	v.SetDefault("competitors.url", "http://localhost:3001/api/scrape-competitors")
	v.SetDefault("competitors.timeout", 30*time.Second)
	v.SetDefault("competitors.marketplaces", []map[string]string{
		{"key": "amazon", "label": "Amazon"},
		{"key": "flipkart", "label": "Flipkart"},
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.textfile", "")
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present, and a
// missing config.yaml falls back to defaults.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	err = config.Validate()
	return
}

// Validate rejects values the engine cannot operate with.
func (c Config) Validate() error {
	p := c.Pricing
	if p.HistoryLimit < 1 {
		return fmt.Errorf("pricing.history_limit must be at least 1, got %d", p.HistoryLimit)
	}
	if p.FairBandMultiplier < 1 {
		return fmt.Errorf("pricing.fair_band_multiplier must be >= 1, got %v", p.FairBandMultiplier)
	}
	if p.MinMarkupMultiplier < 1 {
		return fmt.Errorf("pricing.min_markup_multiplier must be >= 1, got %v", p.MinMarkupMultiplier)
	}
	for name, f := range map[string]float64{
		"excellent_min_factor": p.ExcellentMinFactor,
		"excellent_avg_factor": p.ExcellentAvgFactor,
		"good_avg_factor":      p.GoodAvgFactor,
		"fair_avg_factor":      p.FairAvgFactor,
	} {
		if f <= 0 {
			return fmt.Errorf("pricing.%s must be positive, got %v", name, f)
		}
	}
	if p.UpdateRetries < 1 {
		return fmt.Errorf("pricing.update_retries must be at least 1, got %d", p.UpdateRetries)
	}
	if len(c.Competitors.Marketplaces) == 0 {
		return errors.New("competitors.marketplaces must list at least one marketplace")
	}
	return nil
}
