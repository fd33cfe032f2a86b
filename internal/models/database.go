package models

import (
	"fmt"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

// AutoMigrate creates all tables and indexes at startup. Schema creation
// happens here once, never lazily inside request paths.
func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Team{},
		&TeamMember{},
		&TeamInvite{},
		&Session{},
		&ActivityLogEntry{},
		&ReviewRequest{},
		&LLMConfig{},
		&RefreshToken{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates a default LLM configuration from the static
// config when none exists yet, so generation works out of the box.
func SeedDefaultData(cfg *config.AnthropicConfig) error {
	var count int64
	DB.Model(&LLMConfig{}).Count(&count)
	if count > 0 {
		return nil
	}

	if cfg.APIKey == "" {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	defaultConfig := LLMConfig{
		Name:      "Default (Anthropic)",
		Provider:  "anthropic",
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     model,
		MaxTokens: 4096,
		IsDefault: true,
		IsActive:  true,
	}
	return DB.Create(&defaultConfig).Error
}
