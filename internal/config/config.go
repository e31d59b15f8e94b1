package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Sources     SourcesConfig  `mapstructure:"sources"`
	AI          AIConfig       `mapstructure:"ai"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
	Security    SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SourcesConfig holds the upstream statistical API endpoints. Base URLs are
// configurable so tests can point adapters at local servers.
type SourcesConfig struct {
	BCBBaseURL     string `mapstructure:"bcb_base_url"`
	PTAXBaseURL    string `mapstructure:"ptax_base_url"`
	IpeaBaseURL    string `mapstructure:"ipea_base_url"`
	IBGEBaseURL    string `mapstructure:"ibge_base_url"`
	RequestTimeout string `mapstructure:"request_timeout"`
	LookbackMonths int    `mapstructure:"lookback_months"`
}

// AIConfig holds the text-generation gateway settings.
type AIConfig struct {
	GatewayURL  string  `mapstructure:"gateway_url"`
	APIKey      string  `mapstructure:"api_key" json:"-" yaml:"-"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry string `mapstructure:"jwt_expiry"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("ai.api_key", "AI_GATEWAY_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind AI_GATEWAY_API_KEY environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	environment := strings.ToLower(config.Environment)

	if environment != "development" && config.Security.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	if config.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(config.Security.JWTExpiry); err != nil {
			return nil, fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	if config.Sources.RequestTimeout != "" {
		if _, err := time.ParseDuration(config.Sources.RequestTimeout); err != nil {
			return nil, fmt.Errorf("invalid source request timeout: %w", err)
		}
	}

	config.Environment = environment

	return &config, nil
}

// SourceTimeout returns the per-adapter request timeout as a duration.
func (c *Config) SourceTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Sources.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "conjuntura")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sources.bcb_base_url", "https://api.bcb.gov.br")
	viper.SetDefault("sources.ptax_base_url", "https://olinda.bcb.gov.br")
	viper.SetDefault("sources.ipea_base_url", "http://www.ipeadata.gov.br")
	viper.SetDefault("sources.ibge_base_url", "https://servicodados.ibge.gov.br")
	viper.SetDefault("sources.request_timeout", "15s")
	viper.SetDefault("sources.lookback_months", 24)

	viper.SetDefault("ai.gateway_url", "https://ai.gateway.lovable.dev")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.model", "google/gemini-3-flash-preview")
	viper.SetDefault("ai.temperature", 0.3)
	viper.SetDefault("ai.timeout", "60s")

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.jwt_expiry", "24h")
}
