package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	GoogleOAuth    GoogleOAuthConfig
	Logger         LoggerConfig
	QuestionSource QuestionSourceConfig
	Leaderboard    LeaderboardConfig
	Billing        BillingConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type LoggerConfig struct {
	Level string
	Env   string
}

// QuestionSourceConfig selects how quiz questions are produced.
// Source is "static" (seeded question bank) or "ollama" (AI generation).
type QuestionSourceConfig struct {
	Source string
	Ollama OllamaConfig
}

type OllamaConfig struct {
	ServerURL string
	Model     string
	Timeout   time.Duration
}

type LeaderboardConfig struct {
	CacheTTL time.Duration
}

type BillingConfig struct {
	WebhookSecret string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
			SSLMode:  viper.GetString("db.sslmode"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey:       viper.GetString("jwt.secret_key"),
			AccessTokenTTL:  viper.GetDuration("jwt.access_token_ttl"),
			RefreshTokenTTL: viper.GetDuration("jwt.refresh_token_ttl"),
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     viper.GetString("google_oauth.client_id"),
			ClientSecret: viper.GetString("google_oauth.client_secret"),
			RedirectURL:  viper.GetString("google_oauth.redirect_url"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		QuestionSource: QuestionSourceConfig{
			Source: viper.GetString("question_source.source"),
			Ollama: OllamaConfig{
				ServerURL: viper.GetString("question_source.ollama.server_url"),
				Model:     viper.GetString("question_source.ollama.model"),
				Timeout:   viper.GetDuration("question_source.ollama.timeout"),
			},
		},
		Leaderboard: LeaderboardConfig{
			CacheTTL: viper.GetDuration("leaderboard.cache_ttl"),
		},
		Billing: BillingConfig{
			WebhookSecret: viper.GetString("billing.webhook_secret"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.JWT.SecretKey = secret
	}
	if secret := os.Getenv("BILLING_WEBHOOK_SECRET"); secret != "" {
		config.Billing.WebhookSecret = secret
	}

	// Defaults for values the config file may omit
	if config.JWT.AccessTokenTTL == 0 {
		config.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if config.JWT.RefreshTokenTTL == 0 {
		config.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if config.QuestionSource.Source == "" {
		config.QuestionSource.Source = "static"
	}
	if config.Leaderboard.CacheTTL == 0 {
		config.Leaderboard.CacheTTL = time.Minute
	}
	if config.DB.SSLMode == "" {
		config.DB.SSLMode = "disable"
	}

	return config, nil
}

// GetDSN returns the Postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
