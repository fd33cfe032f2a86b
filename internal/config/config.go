package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	LDAP         LDAPConfig         `yaml:"ldap"`
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	Redis        RedisConfig        `yaml:"redis"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// AnthropicConfig seeds the default LLM provider on first start.
type AnthropicConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// RedisConfig for the optional async generation queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type IntegrationsConfig struct {
	Webflow WebflowConfig `yaml:"webflow"`
	Zapier  ZapierConfig  `yaml:"zapier"`
	Google  GoogleConfig  `yaml:"google"`
}

type WebflowConfig struct {
	APIToken     string `yaml:"api_token"`
	CollectionID string `yaml:"collection_id"`
	SiteID       string `yaml:"site_id"`
}

type ZapierConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// GoogleConfig holds service-account credentials for Sheets export.
type GoogleConfig struct {
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKeyPEM       string `yaml:"private_key_pem"` // inline PEM; GOOGLE_PRIVATE_KEY_FILE loads from a path
	SpreadsheetID       string `yaml:"spreadsheet_id"`
}

// SchedulerConfig controls the background sweeps.
type SchedulerConfig struct {
	PublishCron string `yaml:"publish_cron"` // cron spec for releasing due queue entries
	MigrateCron string `yaml:"migrate_cron"` // cron spec for the orphan-session sweep
	Country     string `yaml:"country"`      // business-day calendar country code, NONE = weekdays only
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "pipeline.db",
		},
		JWT: JWTConfig{
			Secret:     "pipeline-secret-key-change-in-production",
			ExpireHour: 24,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(mail=%s)",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Scheduler: SchedulerConfig{
			PublishCron: "*/15 * * * *",
			MigrateCron: "30 3 * * *",
			Country:     "US",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.Anthropic.APIKey = apiKey
	}
	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		c.Anthropic.Model = model
	}
	if token := os.Getenv("WEBFLOW_API_TOKEN"); token != "" {
		c.Integrations.Webflow.APIToken = token
	}
	if collection := os.Getenv("WEBFLOW_COLLECTION_ID"); collection != "" {
		c.Integrations.Webflow.CollectionID = collection
	}
	if site := os.Getenv("WEBFLOW_SITE_ID"); site != "" {
		c.Integrations.Webflow.SiteID = site
	}
	if hook := os.Getenv("ZAPIER_WEBHOOK_URL"); hook != "" {
		c.Integrations.Zapier.WebhookURL = hook
	}
	if email := os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"); email != "" {
		c.Integrations.Google.ServiceAccountEmail = email
	}
	if keyFile := os.Getenv("GOOGLE_PRIVATE_KEY_FILE"); keyFile != "" {
		if data, err := os.ReadFile(keyFile); err == nil {
			c.Integrations.Google.PrivateKeyPEM = string(data)
		}
	}
	if sheet := os.Getenv("GOOGLE_SPREADSHEET_ID"); sheet != "" {
		c.Integrations.Google.SpreadsheetID = sheet
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
