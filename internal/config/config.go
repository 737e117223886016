package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Render    RenderConfig    `mapstructure:"render"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// MailboxConfig holds Gmail API and IMAP configuration
type MailboxConfig struct {
	Provider      string `mapstructure:"provider"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token"`
	UserEmail     string `mapstructure:"user_email"`
	IMAPHost      string `mapstructure:"imap_host"`
	IMAPPort      int    `mapstructure:"imap_port"`
	IMAPUser      string `mapstructure:"imap_user"`
	IMAPPassword  string `mapstructure:"imap_password"`
	DraftsMailbox string `mapstructure:"drafts_mailbox"`
}

// LLMConfig holds reasoning engine configuration
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	FastModel    string        `mapstructure:"fast_model"`
	QualityModel string        `mapstructure:"quality_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ProjectID    string        `mapstructure:"project_id"`
	Location     string        `mapstructure:"location"`
}

// RenderConfig holds PDF renderer configuration
type RenderConfig struct {
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// BatchConfig holds background classification configuration
type BatchConfig struct {
	Queue     string `mapstructure:"queue"`
	QueueKey  string `mapstructure:"queue_key"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	UserID          uint   `mapstructure:"user_id"`
	Query           string `mapstructure:"query"`
	MaxResults      int64  `mapstructure:"max_results"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	v.AutomaticEnv()
	bindEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("mailbox.provider", "gmail")
	v.SetDefault("mailbox.user_email", "me")
	v.SetDefault("mailbox.imap_host", "imap.gmail.com")
	v.SetDefault("mailbox.imap_port", 993)
	v.SetDefault("mailbox.drafts_mailbox", "Drafts")

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.fast_model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.quality_model", "claude-sonnet-4-0")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.location", "us-central1")

	v.SetDefault("render.timeout", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel", "resumably.events")

	v.SetDefault("batch.queue", "memory")
	v.SetDefault("batch.queue_key", "resumably:batch")
	v.SetDefault("batch.workers", 2)
	v.SetDefault("batch.queue_size", 64)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval_minutes", 15)
	v.SetDefault("scheduler.query", "is:unread newer_than:1d")
	v.SetDefault("scheduler.max_results", 20)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("log.level", "LOG_LEVEL")

	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	// Mailbox
	v.BindEnv("mailbox.provider", "MAILBOX_PROVIDER")
	v.BindEnv("mailbox.client_id", "GMAIL_CLIENT_ID")
	v.BindEnv("mailbox.client_secret", "GMAIL_CLIENT_SECRET")
	v.BindEnv("mailbox.refresh_token", "GMAIL_REFRESH_TOKEN")
	v.BindEnv("mailbox.user_email", "GMAIL_USER_EMAIL")
	v.BindEnv("mailbox.imap_host", "IMAP_HOST")
	v.BindEnv("mailbox.imap_port", "IMAP_PORT")
	v.BindEnv("mailbox.imap_user", "IMAP_USER")
	v.BindEnv("mailbox.imap_password", "IMAP_PASSWORD")
	v.BindEnv("mailbox.drafts_mailbox", "IMAP_DRAFTS_MAILBOX")

	// LLM
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.base_url", "LLM_BASE_URL")
	v.BindEnv("llm.fast_model", "LLM_FAST_MODEL")
	v.BindEnv("llm.quality_model", "LLM_QUALITY_MODEL")
	v.BindEnv("llm.timeout", "LLM_TIMEOUT")
	v.BindEnv("llm.project_id", "GOOGLE_CLOUD_PROJECT")
	v.BindEnv("llm.location", "GOOGLE_CLOUD_LOCATION")

	// Render
	v.BindEnv("render.remote_url", "CHROME_REMOTE_URL")
	v.BindEnv("render.timeout", "RENDER_TIMEOUT")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.channel", "REDIS_CHANNEL")

	// Batch
	v.BindEnv("batch.queue", "BATCH_QUEUE")
	v.BindEnv("batch.queue_key", "BATCH_QUEUE_KEY")
	v.BindEnv("batch.workers", "BATCH_WORKERS")
	v.BindEnv("batch.queue_size", "BATCH_QUEUE_SIZE")

	// Scheduler
	v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	v.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
	v.BindEnv("scheduler.user_id", "SCHEDULER_USER_ID")
	v.BindEnv("scheduler.query", "SCHEDULER_QUERY")
	v.BindEnv("scheduler.max_results", "SCHEDULER_MAX_RESULTS")
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "memory":
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Mailbox.Provider {
	case "gmail":
		if c.Mailbox.ClientID == "" || c.Mailbox.ClientSecret == "" {
			return fmt.Errorf("Gmail OAuth2 client credentials are required")
		}
	case "imap":
		if c.Mailbox.IMAPUser == "" || c.Mailbox.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when using IMAP")
		}
	default:
		return fmt.Errorf("unsupported mailbox provider %q", c.Mailbox.Provider)
	}

	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM api key is required for the anthropic provider")
		}
	case "vertex":
		if c.LLM.ProjectID == "" {
			return fmt.Errorf("LLM project id is required for the vertex provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.FastModel == "" || c.LLM.QualityModel == "" {
		return fmt.Errorf("LLM fast and quality models are required")
	}

	switch c.Batch.Queue {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("redis must be enabled for the redis batch queue")
		}
	default:
		return fmt.Errorf("unsupported batch queue %q", c.Batch.Queue)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch workers must be greater than 0")
	}

	if c.Scheduler.Enabled {
		if c.Scheduler.IntervalMinutes <= 0 {
			return fmt.Errorf("scheduler interval must be greater than 0")
		}
		if c.Scheduler.UserID == 0 {
			return fmt.Errorf("scheduler user id is required when the scheduler is enabled")
		}
	}

	return nil
}
