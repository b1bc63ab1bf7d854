package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// VerifyMode selects how bills are re-checked against the search keyword
// after the detail fetch.
type VerifyMode string

const (
	// VerifyStrict re-verifies keyword presence in the bill text before
	// accepting it.
	VerifyStrict VerifyMode = "strict"
	// VerifyTrust accepts every bill the upstream search returned.
	VerifyTrust VerifyMode = "trust"
)

// Config holds the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Retry  RetryConfig  `yaml:"retry" mapstructure:"retry"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// APIConfig holds LegiScan API access settings.
type APIConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	RequestDelayMs  int    `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	InsecureSkipTLS bool   `yaml:"insecure_skip_tls" mapstructure:"insecure_skip_tls"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// TimeSegment names one sub-window of the target time range. Segmented
// searching works around upstream result truncation at year granularity.
type TimeSegment struct {
	Start string `yaml:"start" mapstructure:"start"`
	End   string `yaml:"end" mapstructure:"end"`
	Label string `yaml:"label" mapstructure:"label"`
}

// SearchConfig configures keyword searching.
type SearchConfig struct {
	Keywords              []string      `yaml:"keywords" mapstructure:"keywords"`
	KeywordsFile          string        `yaml:"keywords_file" mapstructure:"keywords_file"`
	TargetYears           []int         `yaml:"target_years" mapstructure:"target_years"`
	MaxResultsPerKeyword  int           `yaml:"max_results_per_keyword" mapstructure:"max_results_per_keyword"` // 0 = unbounded
	Segments              []TimeSegment `yaml:"segments" mapstructure:"segments"`
	MaxConcurrentSearches int           `yaml:"max_concurrent_searches" mapstructure:"max_concurrent_searches"`
	SegmentTimeoutSecs    int           `yaml:"segment_timeout_secs" mapstructure:"segment_timeout_secs"`
}

// BatchConfig configures bill detail processing.
type BatchConfig struct {
	Size               int        `yaml:"size" mapstructure:"size"`
	MaxConcurrentBills int        `yaml:"max_concurrent_bills" mapstructure:"max_concurrent_bills"`
	BillTimeoutSecs    int        `yaml:"bill_timeout_secs" mapstructure:"bill_timeout_secs"`
	Verify             VerifyMode `yaml:"verify" mapstructure:"verify"`
}

// CacheConfig configures the on-disk search result cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// RetryConfig configures API retry behavior.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms" mapstructure:"initial_delay_ms"`
}

// OutputConfig configures the export target.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// DefaultKeywords is the fixed healthcare policy keyword set searched when
// the config supplies none.
var DefaultKeywords = []string{
	"Prior authorization",
	"Utilization review",
	"Utilization management",
	"Medical necessity review",
	"Prompt pay",
	"Prompt payment",
	"Clean claims",
	"Clean claim",
	"Coordination of benefits",
	"Artificial intelligence",
	"Clinical decision support",
	"Automated decision making",
	"Automate decision support",
}

// defaultSegments covers the 2025-2026 target range: quarters for the active
// year, halves for the following one.
var defaultSegments = []TimeSegment{
	{Start: "2025-01-01", End: "2025-03-31", Label: "Q1 2025"},
	{Start: "2025-04-01", End: "2025-06-30", Label: "Q2 2025"},
	{Start: "2025-07-01", End: "2025-09-30", Label: "Q3 2025"},
	{Start: "2025-10-01", End: "2025-12-31", Label: "Q4 2025"},
	{Start: "2026-01-01", End: "2026-06-30", Label: "H1 2026"},
	{Start: "2026-07-01", End: "2026-12-31", Label: "H2 2026"},
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BILLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "https://api.legiscan.com/")
	v.SetDefault("api.request_delay_ms", 250)
	v.SetDefault("api.insecure_skip_tls", false)
	v.SetDefault("api.timeout_secs", 60)
	v.SetDefault("search.keywords", DefaultKeywords)
	v.SetDefault("search.target_years", []int{2025, 2026})
	v.SetDefault("search.max_results_per_keyword", 0)
	v.SetDefault("search.max_concurrent_searches", 3)
	v.SetDefault("search.segment_timeout_secs", 120)
	v.SetDefault("batch.size", 20)
	v.SetDefault("batch.max_concurrent_bills", 5)
	v.SetDefault("batch.bill_timeout_secs", 90)
	v.SetDefault("batch.verify", string(VerifyStrict))
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.ttl_hours", 12)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay_ms", 1000)
	v.SetDefault("output.path", "data/bills_output.xlsx")
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "data/billscan.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "logs/extraction.log")

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

	if len(cfg.Search.Segments) == 0 {
		cfg.Search.Segments = defaultSegments
	}

	if cfg.Search.KeywordsFile != "" {
		kws, err := LoadKeywordsFile(cfg.Search.KeywordsFile)
		if err != nil {
			return nil, err
		}
		cfg.Search.Keywords = kws
	}

	return &cfg, nil
}

// Validate checks the settings that must be present before any work starts.
// A missing API key fails here rather than as a mid-run 401.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return eris.New("config: api.key is required (set BILLSCAN_API_KEY or api.key in config.yaml)")
	}
	if len(c.Search.Keywords) == 0 {
		return eris.New("config: search.keywords must not be empty")
	}
	if len(c.Search.TargetYears) == 0 {
		return eris.New("config: search.target_years must not be empty")
	}
	if m := c.Batch.Verify; m != VerifyStrict && m != VerifyTrust {
		return eris.Errorf("config: batch.verify must be %q or %q, got %q", VerifyStrict, VerifyTrust, m)
	}
	return nil
}

// RequestDelay returns the inter-request spacing as a duration.
func (c APIConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

// InitialDelay returns the first backoff sleep as a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

// TTL returns the cache validity window as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// keywordsFile is the shape of an external keyword list.
type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywordsFile reads a YAML keyword list: either a top-level `keywords:`
// sequence or a bare sequence of strings.
func LoadKeywordsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read keywords file %s", path)
	}

	var kf keywordsFile
	if err := yaml.Unmarshal(data, &kf); err == nil && len(kf.Keywords) > 0 {
		return kf.Keywords, nil
	}

	var plain []string
	if err := yaml.Unmarshal(data, &plain); err != nil {
		return nil, eris.Wrapf(err, "config: parse keywords file %s", path)
	}
	if len(plain) == 0 {
		return nil, eris.Errorf("config: keywords file %s is empty", path)
	}
	return plain, nil
}

// InitLogger initializes the global zap logger. When a log file is
// configured its directory is created and log lines go to both the file
// and stderr.
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

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return eris.Wrap(err, "config: create log dir")
		}
		zapCfg.OutputPaths = []string{"stderr", cfg.File}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
