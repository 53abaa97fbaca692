package config

import (
	"strings"

	"golang-fii-analyzer/pkg/config"
)

// Scheduler holds the intervals, in minutes, for the three periodic tasks.
// An interval of zero disables the task.
type Scheduler struct {
	Enabled                   bool `mapstructure:"enabled"`
	CollectionIntervalMinutes int  `mapstructure:"collection_interval_minutes"`
	AnalysisIntervalMinutes   int  `mapstructure:"analysis_interval_minutes"`
	AlertCheckIntervalMinutes int  `mapstructure:"alert_check_interval_minutes"`
}

// Worker holds job queue configuration.
type Worker struct {
	PollingInterval  string `mapstructure:"polling_interval"`
	MaxRecentResults int    `mapstructure:"max_recent_results"`
}

// Analysis holds the default scoring policy.
type Analysis struct {
	MinDividendYield    float64 `mapstructure:"min_dividend_yield"`
	MaxPVP              float64 `mapstructure:"max_pvp"`
	MinPrice            float64 `mapstructure:"min_price"`
	MaxPrice            float64 `mapstructure:"max_price"`
	WeightDividendYield float64 `mapstructure:"weight_dividend_yield"`
	WeightPVP           float64 `mapstructure:"weight_pvp"`
	WeightPrice         float64 `mapstructure:"weight_price"`
	WeightLiquidity     float64 `mapstructure:"weight_liquidity"`
}

// Email holds SMTP delivery configuration.
type Email struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// Telegram holds the Telegram bot configuration.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Notification holds notification channel configuration. A channel with an
// empty destination is considered unconfigured and is skipped by the dispatcher.
type Notification struct {
	Enabled                     bool     `mapstructure:"enabled"`
	Email                       Email    `mapstructure:"email"`
	Telegram                    Telegram `mapstructure:"telegram"`
	WebhookURL                  string   `mapstructure:"webhook_url"`
	AlertCacheDuration          string   `mapstructure:"alert_cache_duration"`
	AlertResendThresholdPercent float64  `mapstructure:"alert_resend_threshold_percent"`
}

// Brapi holds the Brapi quote API configuration.
type Brapi struct {
	BaseURL             string `mapstructure:"base_url"`
	Token               string `mapstructure:"token"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	BatchSize           int    `mapstructure:"batch_size"`
	CacheDuration       string `mapstructure:"cache_duration"`
}

// Scrapers holds per-source scraper configuration.
type Scrapers struct {
	FundsExplorerBaseURL string `mapstructure:"funds_explorer_base_url"`
	StatusInvestBaseURL  string `mapstructure:"status_invest_base_url"`
	ClubeFIIBaseURL      string `mapstructure:"clube_fii_base_url"`
	Brapi                Brapi  `mapstructure:"brapi"`
	DefaultSources       string `mapstructure:"default_sources"`
}

// SourceList returns the default source identifiers from the comma-separated
// configuration value.
func (s Scrapers) SourceList() []string {
	var sources []string
	for _, source := range strings.Split(s.DefaultSources, ",") {
		if trimmed := strings.TrimSpace(source); trimmed != "" {
			sources = append(sources, trimmed)
		}
	}
	return sources
}

// Config holds the full configuration for the FII analyzer service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Scheduler    Scheduler       `mapstructure:"scheduler"`
	Worker       Worker          `mapstructure:"worker"`
	Analysis     Analysis        `mapstructure:"analysis"`
	Notification Notification    `mapstructure:"notification"`
	Scrapers     Scrapers        `mapstructure:"scrapers"`
}

// Load loads the service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
