package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourceConfig configures the registry listing page.
type SourceConfig struct {
	ListingURL  string `yaml:"listing_url" mapstructure:"listing_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxJournals int    `yaml:"max_journals" mapstructure:"max_journals"`
}

// DownloadConfig configures PDF acquisition.
type DownloadConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Timeout returns the per-download timeout as a duration.
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	OCR        OCRConfig `yaml:"ocr" mapstructure:"ocr"`
	TablesPath string    `yaml:"tables_path" mapstructure:"tables_path"`
}

// OCRConfig selects the PDF text extraction provider.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	APIEndpoint   string `yaml:"api_endpoint" mapstructure:"api_endpoint"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ScheduleConfig configures the weekly scraper trigger.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Weekday string `yaml:"weekday" mapstructure:"weekday"`
	Hour    int    `yaml:"hour" mapstructure:"hour"`
	Minute  int    `yaml:"minute" mapstructure:"minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOURNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "journal.db")
	v.SetDefault("source.listing_url", "https://search.ipindia.gov.in/IPOJournal/Journal/Trademark")
	v.SetDefault("source.user_agent", "journal-cli/1.0")
	v.SetDefault("source.max_journals", 2)
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.timeout_secs", 300)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("extract.ocr.provider", "local")
	v.SetDefault("extract.ocr.pdftotext_path", "pdftotext")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.weekday", "monday")
	v.SetDefault("schedule.hour", 9)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
