package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/spf13/viper"
)

// Config is the full application configuration: the scan parameters plus the
// ambient concerns (logging, reporting, resource throttling) that surround
// them. Every field binds to a viper key so it can come from a config file,
// a CLI flag, or a built-in default, in that increasing order of priority.
type Config struct {
	Scan     models.ScanConfig `mapstructure:"scan"`
	Logging  LoggingConfig     `mapstructure:"logging"`
	Report   ReportConfig      `mapstructure:"report"`
	Resource ResourceConfig    `mapstructure:"resource"`
}

// LoggingConfig controls zerolog's output. KeyHunter is a short-lived CLI
// run, not a long-running service, so file logging with rotation is opt-in
// rather than always-on: LogFile empty means console only.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	LogFile string `mapstructure:"log_file"`
}

// ReportConfig selects the reporter used to render ScanResults.
type ReportConfig struct {
	Format string `mapstructure:"format"` // "default" or "json"
}

// ResourceConfig mirrors the teacher's resource-throttling knobs, narrowed to
// the bounds this tool's worker pools actually use.
type ResourceConfig struct {
	CPULoadThreshold      int `mapstructure:"cpu_load_threshold"`
	SafetyReserveMemoryMB int `mapstructure:"safety_reserve_memory_mb"`
}

// Validate checks ResourceConfig's values are within sane bounds, mirroring
// the teacher's own ResourceConfig.Validate.
func (r *ResourceConfig) Validate() error {
	if r.CPULoadThreshold < 50 || r.CPULoadThreshold > 100 {
		return fmt.Errorf("cpu_load_threshold must be between 50 and 100, got %d", r.CPULoadThreshold)
	}
	if r.SafetyReserveMemoryMB < 64 {
		return fmt.Errorf("safety_reserve_memory_mb must be >= 64, got %d", r.SafetyReserveMemoryMB)
	}
	return nil
}

// LoadConfig reads an optional config file (searched at configPath, then
// ./configs, then ., then $HOME/.keyhunter) layered on top of built-in
// defaults, the way the teacher's LoadConfig does for its own settings.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("keyhunter")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".keyhunter"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Resource.Validate(); err != nil {
		return nil, fmt.Errorf("validating resource config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.max_depth", 10)
	v.SetDefault("scan.max_pages", 256)
	v.SetDefault("scan.walker_workers", 4)
	v.SetDefault("scan.downloader_workers", 4)
	v.SetDefault("scan.extractor_workers", 4)
	v.SetDefault("scan.scripts_chan_cap", 64)
	v.SetDefault("scan.sources_chan_cap", 32)
	v.SetDefault("scan.max_script_bytes", 5*1024*1024)
	v.SetDefault("scan.request_timeout_seconds", 15)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_file", "")

	v.SetDefault("report.format", "default")

	v.SetDefault("resource.cpu_load_threshold", 80)
	v.SetDefault("resource.safety_reserve_memory_mb", 256)
}

// ApplyFlags overlays CLI-flag values onto cfg, following the same
// CLI-beats-config precedence as the teacher's MergeCLIFlags. A zero value
// for an int flag or an empty string means "not set on the command line" and
// leaves the config/default value untouched.
func (c *Config) ApplyFlags(seedURL string, maxDepth, maxPages int, rulesPath, format string, verbose bool) {
	c.Scan.SeedURL = seedURL
	if maxDepth > 0 {
		c.Scan.MaxDepth = maxDepth
	}
	if maxPages > 0 {
		c.Scan.MaxPages = maxPages
	}
	if rulesPath != "" {
		c.Scan.RulesPath = rulesPath
	}
	if format != "" {
		c.Report.Format = format
	}
	if verbose {
		c.Logging.Level = "debug"
	}
}
