package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Output string `yaml:"output" json:"output"`
	Format string `yaml:"format" json:"format"`

	Menu struct {
		BaseURL  string `yaml:"base" json:"base"`
		Location string `yaml:"location" json:"location"`
	} `yaml:"menu" json:"menu"`

	Rating struct {
		BaseURL     string `yaml:"base" json:"base"`
		Concurrency int    `yaml:"concurrency" json:"concurrency"`
	} `yaml:"rating" json:"rating"`

	HTTP struct {
		UserAgent   string   `yaml:"userAgent" json:"userAgent"`
		Timeout     Duration `yaml:"timeout" json:"timeout"`
		MaxAttempts int      `yaml:"maxAttempts" json:"maxAttempts"`
	} `yaml:"http" json:"http"`

	Cache struct {
		Backend string   `yaml:"backend" json:"backend"`
		Dir     string   `yaml:"dir" json:"dir"`
		TTL     Duration `yaml:"ttl" json:"ttl"`
		Clear   bool     `yaml:"clear" json:"clear"`
		Purge   bool     `yaml:"purge" json:"purge"`
	} `yaml:"cache" json:"cache"`

	Scrape struct {
		StrictTagBoundary bool `yaml:"strictTagBoundary" json:"strictTagBoundary"`
	} `yaml:"scrape" json:"scrape"`

	Serve struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"serve" json:"serve"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration reads either a Go duration string such as "15s" or an integer
// count of nanoseconds, in both YAML and JSON files.
type Duration time.Duration

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return Duration(d), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(n), nil
}

// UnmarshalJSON accepts a string or a number.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		s = n.String()
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// UnmarshalYAML accepts any scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	v, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = v
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc onto cfg wherever cfg still holds
// its zero or default value. Explicit settings are preserved.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := DefaultConfig()

	setString := func(dst *string, dflt, v string) {
		if v != "" && (*dst == "" || *dst == dflt) {
			*dst = v
		}
	}
	setInt := func(dst *int, dflt, v int) {
		if v > 0 && (*dst == 0 || *dst == dflt) {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, dflt, v time.Duration) {
		if v > 0 && (*dst == 0 || *dst == dflt) {
			*dst = v
		}
	}

	setString(&cfg.OutputPath, def.OutputPath, fc.Output)
	setString(&cfg.Format, def.Format, fc.Format)
	setString(&cfg.MenuBaseURL, def.MenuBaseURL, fc.Menu.BaseURL)
	setString(&cfg.LocationID, def.LocationID, fc.Menu.Location)
	setString(&cfg.RatingBaseURL, def.RatingBaseURL, fc.Rating.BaseURL)
	setInt(&cfg.Concurrency, def.Concurrency, fc.Rating.Concurrency)
	setString(&cfg.UserAgent, def.UserAgent, fc.HTTP.UserAgent)
	setDuration(&cfg.RequestTimeout, def.RequestTimeout, time.Duration(fc.HTTP.Timeout))
	setInt(&cfg.MaxAttempts, def.MaxAttempts, fc.HTTP.MaxAttempts)
	setString(&cfg.CacheBackend, def.CacheBackend, fc.Cache.Backend)
	setString(&cfg.CacheDir, def.CacheDir, fc.Cache.Dir)
	setDuration(&cfg.CacheTTL, def.CacheTTL, time.Duration(fc.Cache.TTL))
	setString(&cfg.ListenAddr, def.ListenAddr, fc.Serve.Listen)

	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CachePurge && fc.Cache.Purge {
		cfg.CachePurge = true
	}
	if !cfg.StrictTagBoundary && fc.Scrape.StrictTagBoundary {
		cfg.StrictTagBoundary = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
