package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "mysql", Host: "localhost", User: "test", DBName: "test"},
		Mailbox:  MailboxConfig{Provider: "gmail", ClientID: "id", ClientSecret: "secret"},
		LLM: LLMConfig{
			Provider:     "anthropic",
			APIKey:       "key",
			FastModel:    "fast",
			QualityModel: "quality",
		},
		Batch:     BatchConfig{Queue: "memory", Workers: 1},
		Scheduler: SchedulerConfig{IntervalMinutes: 5},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	invalid := &Config{Server: ServerConfig{Port: ""}}
	assert.Error(t, invalid.Validate())
}

func TestConfigValidationCases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"memory driver needs no host", func(c *Config) { c.Database = DatabaseConfig{Driver: "memory"} }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, true},
		{"imap without credentials", func(c *Config) { c.Mailbox.Provider = "imap" }, true},
		{"imap with credentials", func(c *Config) {
			c.Mailbox = MailboxConfig{Provider: "imap", IMAPUser: "u", IMAPPassword: "p"}
		}, false},
		{"anthropic without key", func(c *Config) { c.LLM.APIKey = "" }, true},
		{"vertex without project", func(c *Config) { c.LLM.Provider = "vertex" }, true},
		{"vertex with project", func(c *Config) { c.LLM.Provider = "vertex"; c.LLM.ProjectID = "p" }, false},
		{"missing quality model", func(c *Config) { c.LLM.QualityModel = "" }, true},
		{"redis queue without redis", func(c *Config) { c.Batch.Queue = "redis" }, true},
		{"redis queue with redis", func(c *Config) { c.Batch.Queue = "redis"; c.Redis.Enabled = true }, false},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, true},
		{"scheduler without user", func(c *Config) { c.Scheduler.Enabled = true }, true},
		{"scheduler with user", func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.UserID = 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}
	assert.Equal(t, "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local", cfg.GetDSN())

	cfg.Driver = "postgres"
	cfg.Port = 5432
	cfg.SSLMode = "disable"
	assert.Equal(t, "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable", cfg.GetDSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_FAST_MODEL", "env-fast")

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "gmail", cfg.Mailbox.Provider)
	assert.Equal(t, "env-fast", cfg.LLM.FastModel)
	assert.Equal(t, "memory", cfg.Batch.Queue)
	assert.Equal(t, 2, cfg.Batch.Workers)
}
