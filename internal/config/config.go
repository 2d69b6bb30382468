package config

import (
	"fmt"
	"time"
)

const (
	ModeListing = "listing"
	ModeSitemap = "sitemap"

	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMSSQL  = "mssql"
)

type Config struct {
	Source        SourceConfig        `yaml:"source"`
	HTTP          HttpConfig          `yaml:"http"`
	Backoff       BackoffConfig       `yaml:"backoff"`
	Delays        DelaysConfig        `yaml:"delays"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Images        ImagesConfig        `yaml:"images"`
	Storage       StorageConfig       `yaml:"storage"`
	Rod           RodConfig           `yaml:"rod"`
	SelectorsFile string              `yaml:"selectors_file"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SourceConfig struct {
	BaseURL     string `yaml:"base_url"`
	PageSize    int    `yaml:"page_size"`
	SinceYear   int    `yaml:"since_year"`
	Mode        string `yaml:"mode"`
	SitemapPath string `yaml:"sitemap_path"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

// DelaysConfig минимальный интервал между запросами одного класса
type DelaysConfig struct {
	ListingMS int `yaml:"listing_ms"`
	SitemapMS int `yaml:"sitemap_ms"`
	VerifyMS  int `yaml:"verify_ms"`
	PostMS    int `yaml:"post_ms"`
	ImageMS   int `yaml:"image_ms"`
}

type DiscoveryConfig struct {
	// VerifyCandidates проверять URL-кандидатов загрузкой поста (команда discover)
	VerifyCandidates bool `yaml:"verify_candidates"`
	// VerifyOnScrape то же для scrape-all/update; парсинг и так отсеивает пустые посты
	VerifyOnScrape bool `yaml:"verify_on_scrape"`
}

type ImagesConfig struct {
	Enabled    bool   `yaml:"enabled"`
	HostMarker string `yaml:"host_marker"`
	MinBytes   int    `yaml:"min_bytes"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DataDir          string `yaml:"data_dir"`
	StateFile        string `yaml:"state_file"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Default конфигурация по умолчанию для ntucgm.blogspot.com
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:     "https://ntucgm.blogspot.com",
			PageSize:    20,
			SinceYear:   2020,
			Mode:        ModeListing,
			SitemapPath: "/sitemap.xml",
		},
		HTTP: HttpConfig{
			UserAgent:        "Mozilla/5.0 (compatible; RD-Card-Scraper/0.1)",
			ConnectTimeoutMS: 10000,
			TotalTimeoutMS:   30000,
			MaxRetries:       2,
		},
		Backoff: BackoffConfig{
			MinMS:     500,
			MaxMS:     8000,
			JitterPct: 20,
		},
		Delays: DelaysConfig{
			ListingMS: 1500,
			SitemapMS: 1500,
			VerifyMS:  1500,
			PostMS:    1500,
			ImageMS:   300,
		},
		Discovery: DiscoveryConfig{
			VerifyCandidates: true,
			VerifyOnScrape:   false,
		},
		Images: ImagesConfig{
			Enabled:    true,
			HostMarker: "googleusercontent",
			MinBytes:   1000,
		},
		Storage: StorageConfig{
			Driver:           DriverJSON,
			DataDir:          "data",
			StateFile:        "scrape_state.json",
			CommandTimeoutMS: 5000,
		},
		Rod: RodConfig{
			PageTimeoutS:     30,
			WaitLoadTimeoutS: 15,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be > 0")
	}
	if c.Source.Mode != ModeListing && c.Source.Mode != ModeSitemap {
		return fmt.Errorf("source.mode must be 'listing' or 'sitemap'")
	}
	if c.Source.Mode == ModeSitemap && c.Source.SitemapPath == "" {
		return fmt.Errorf("source.sitemap_path is required when mode is 'sitemap'")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Delays.ListingMS < 0 || c.Delays.SitemapMS < 0 || c.Delays.VerifyMS < 0 ||
		c.Delays.PostMS < 0 || c.Delays.ImageMS < 0 {
		return fmt.Errorf("delays must be >= 0")
	}
	if c.Images.Enabled && c.Images.HostMarker == "" {
		return fmt.Errorf("images.host_marker is required")
	}
	if c.Images.MinBytes < 0 {
		return fmt.Errorf("images.min_bytes must be >= 0")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	switch c.Storage.Driver {
	case DriverJSON:
		if c.Storage.StateFile == "" {
			return fmt.Errorf("storage.state_file is required for driver 'json'")
		}
	case DriverSQLite, DriverMSSQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver '%s'", c.Storage.Driver)
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("storage.driver must be 'json', 'sqlite' or 'mssql'")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetListingDelay() time.Duration {
	return time.Duration(c.Delays.ListingMS) * time.Millisecond
}

func (c *Config) GetSitemapDelay() time.Duration {
	return time.Duration(c.Delays.SitemapMS) * time.Millisecond
}

func (c *Config) GetVerifyDelay() time.Duration {
	return time.Duration(c.Delays.VerifyMS) * time.Millisecond
}

func (c *Config) GetPostDelay() time.Duration {
	return time.Duration(c.Delays.PostMS) * time.Millisecond
}

func (c *Config) GetImageDelay() time.Duration {
	return time.Duration(c.Delays.ImageMS) * time.Millisecond
}
