// Package config loads run configuration from a YAML file with .env and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"treenav/pkg/geometry"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAssets  = "TREENAV_ASSETS"
	EnvDebug   = "TREENAV_DEBUG"
	EnvLogDir  = "TREENAV_LOG_DIR"
	EnvOCRLang = "TREENAV_OCR_LANG"
)

// Thresholds holds template matching confidence levels.
type Thresholds struct {
	Match     float64 `yaml:"match"`     // Single best match
	Icons     float64 `yaml:"icons"`     // Multi-instance icon mapping
	Interrupt float64 `yaml:"interrupt"` // Interruption images while waiting
}

// Regions holds the fractional search regions used by the navigator.
type Regions struct {
	Tree            geometry.SearchRegion `yaml:"tree"`             // Folder tree; Y0/X1 are refined from the menu header
	MenuHeader      geometry.SearchRegion `yaml:"menu_header"`      // Where the column header is searched
	FindDialog      geometry.SearchRegion `yaml:"find_dialog"`      // Project search dialog
	FindResult      geometry.SearchRegion `yaml:"find_result"`      // Project folder in the result list
	Toolbar         geometry.SearchRegion `yaml:"toolbar"`          // Tools menu
	Export          geometry.SearchRegion `yaml:"export"`           // Export menu entries
	ExportDialog    geometry.SearchRegion `yaml:"export_dialog"`    // Export file dialog
	ModuleView      geometry.SearchRegion `yaml:"module_view"`      // Open module; rows of its main column
	ColumnSeparator geometry.SearchRegion `yaml:"column_separator"` // Horizontal span of the column separator
	DefaultTreeX    float64               `yaml:"default_tree_x"`   // Fallback right edge of the tree
	DefaultTreeY    float64               `yaml:"default_tree_y"`   // Fallback top edge of the tree
}

// Run lists the navigation inputs.
type Run struct {
	Projects    []string `yaml:"projects"`
	Domains     []string `yaml:"domains"`
	UseCases    []string `yaml:"use_cases"`
	VFs         []string `yaml:"vfs"`
	StartDelay  Duration `yaml:"start_delay"`
	WaitTimeout Duration `yaml:"wait_timeout"`
}

// Config is the complete run configuration.
type Config struct {
	AssetsDir  string     `yaml:"assets_dir"`
	Debug      bool       `yaml:"debug"`
	DebugDir   string     `yaml:"debug_dir"`
	LogDir     string     `yaml:"log_dir"`
	OCRLang    string     `yaml:"ocr_lang"`
	AbortKey   string     `yaml:"abort_key"`
	Thresholds Thresholds `yaml:"thresholds"`
	Regions    Regions    `yaml:"regions"`
	Run        Run        `yaml:"run"`
}

// Duration is a time.Duration that unmarshals from strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the configuration tuned for the target application.
func Default() *Config {
	return &Config{
		AssetsDir: "images",
		DebugDir:  "debug",
		LogDir:    "logs",
		OCRLang:   "eng",
		AbortKey:  "esc",
		Thresholds: Thresholds{
			Match:     0.7,
			Icons:     0.65,
			Interrupt: 0.8,
		},
		Regions: Regions{
			Tree:            geometry.NewSearchRegion(0.1, 0.1, 0.3, 0.95),
			MenuHeader:      geometry.NewSearchRegion(0.1, 0.05, 0.8, 0.4),
			FindDialog:      geometry.NewSearchRegion(0.3, 0.2, 1, 0.8),
			FindResult:      geometry.NewSearchRegion(0.3, 0.4, 0.7, 0.8),
			Toolbar:         geometry.NewSearchRegion(0.01, 0.05, 0.7, 0.4),
			Export:          geometry.NewSearchRegion(0, 0, 0.6, 0.5),
			ExportDialog:    geometry.NewSearchRegion(0.3, 0.5, 0.6, 0.8),
			ModuleView:      geometry.NewSearchRegion(0.05, 0.05, 0.95, 0.6),
			ColumnSeparator: geometry.NewSearchRegion(0.11, 0.05, 0.3, 0.95),
			DefaultTreeX:    0.3,
			DefaultTreeY:    0.1,
		},
		Run: Run{
			StartDelay:  Duration{5 * time.Second},
			WaitTimeout: Duration{30 * time.Second},
		},
	}
}

// Load reads the YAML file at path on top of Default, then applies .env
// and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// .env in the working directory is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAssets); v != "" {
		c.AssetsDir = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv(EnvOCRLang); v != "" {
		c.OCRLang = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Debug = b
		}
	}
}

// Validate checks thresholds and regions.
func (c *Config) Validate() error {
	for name, t := range map[string]float64{
		"match":     c.Thresholds.Match,
		"icons":     c.Thresholds.Icons,
		"interrupt": c.Thresholds.Interrupt,
	} {
		if t <= 0 || t > 1 {
			return fmt.Errorf("threshold %s out of range (0,1]: %.2f", name, t)
		}
	}
	for name, r := range map[string]geometry.SearchRegion{
		"tree":             c.Regions.Tree,
		"menu_header":      c.Regions.MenuHeader,
		"find_dialog":      c.Regions.FindDialog,
		"find_result":      c.Regions.FindResult,
		"toolbar":          c.Regions.Toolbar,
		"export":           c.Regions.Export,
		"export_dialog":    c.Regions.ExportDialog,
		"module_view":      c.Regions.ModuleView,
		"column_separator": c.Regions.ColumnSeparator,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("region %s: %w", name, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}
