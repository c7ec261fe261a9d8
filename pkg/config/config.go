package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the configuration for a single AI provider.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	ApiURL string `yaml:"api_url"`
	ApiKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// SpiderConfig holds the browser session settings.
type SpiderConfig struct {
	// RequestDelay is the inter-page wait in seconds that lets
	// asynchronous search responses arrive before the next page click.
	RequestDelay  float64 `yaml:"request_delay"`
	MaxPagesLimit int     `yaml:"max_pages_limit"`
	Headless      bool    `yaml:"headless"`
	UserAgent     string  `yaml:"user_agent"`
}

// DatabaseConfig holds the sqlite store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds result rendering settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	TableMaxRows  int    `yaml:"table_max_rows"`
	TitleWidth    int    `yaml:"title_width"`
	AreaWidth     int    `yaml:"area_width"`
	SellerWidth   int    `yaml:"seller_width"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Spider   SpiderConfig   `yaml:"spider"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Analyzer struct {
		PrimaryProvider   string           `yaml:"primary_provider"`
		FallbackProviders []string         `yaml:"fallback_providers"`
		Providers         []ProviderConfig `yaml:"providers"`
	} `yaml:"analyzer"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Spider = SpiderConfig{
		RequestDelay:  1,
		MaxPagesLimit: 50,
		Headless:      true,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	cfg.Database = DatabaseConfig{Path: "data/xianyu_spider.db"}
	cfg.Output = OutputConfig{
		DefaultFormat: "table",
		TableMaxRows:  10,
		TitleWidth:    40,
		AreaWidth:     15,
		SellerWidth:   20,
	}
	cfg.Server.Addr = ":8080"
	return cfg
}

// LoadConfig reads the YAML config file, falling back to defaults when the
// file does not exist. Any invalid setting aborts before scraping begins.
func LoadConfig(filepath string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", filepath)
			return cfg
		}
		log.Fatalf("Error reading config file: %v", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Fatalf("Error unmarshalling config YAML: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Validate rejects broken settings up front so a session never starts with
// a configuration that would fail halfway through.
func (c *Config) Validate() error {
	if c.Spider.RequestDelay < 0 {
		return fmt.Errorf("spider.request_delay must be non-negative, got %v", c.Spider.RequestDelay)
	}
	if c.Spider.MaxPagesLimit < 1 {
		return fmt.Errorf("spider.max_pages_limit must be at least 1, got %d", c.Spider.MaxPagesLimit)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if err := ValidateFormat(c.Output.DefaultFormat); err != nil {
		return err
	}
	return nil
}

// ValidateMaxPages checks a requested page count against the configured cap.
func (c *Config) ValidateMaxPages(n int) error {
	if n < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", n)
	}
	if n > c.Spider.MaxPagesLimit {
		return fmt.Errorf("max_pages %d exceeds the configured limit of %d", n, c.Spider.MaxPagesLimit)
	}
	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case "table", "json", "csv":
		return nil
	}
	return fmt.Errorf("unsupported output format %q (supported: table, json, csv)", format)
}
