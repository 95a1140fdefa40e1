// Package config loads and validates the pyladies-meetup configuration.
//
// Configuration lives in an INI file (pyladies.ini by default) with a [main]
// and a [meetup] section. A file ending in .toml is read as TOML with the same
// tables. Selected values can be overridden from the environment, and the
// output directory can be overridden by the caller (the --output flag).
//
// Load validates every required key before returning so that a bad
// configuration fails at startup, before any network activity.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
)

const (
	DefaultPath        = "pyladies.ini"
	DefaultOutputDir   = "data"
	DefaultLogLevel    = "debug"
	DefaultRegistryURL = "https://raw.githubusercontent.com/pyladies/pyladies/master/www/config.yml"

	DefaultRequestDelay   = 1 * time.Second
	DefaultChapterDelay   = 500 * time.Millisecond
	DefaultNearbyRadius   = 50.0 // miles
	DefaultNearbyCategory = 34   // Meetup "Tech" category
	DefaultNearbyPageSize = 200
	DefaultRetries        = 1

	EnvAPIKey    = "MEETUP_API_KEY"
	EnvOutputDir = "PYLADIES_OUTPUT_DIR"
)

// Config is the resolved configuration for a run.
type Config struct {
	Main   Main
	Meetup Meetup
}

// Main holds the [main] section.
type Main struct {
	OutputDir   string
	LogLevel    string
	RegistryURL string
}

// Meetup holds the [meetup] section.
type Meetup struct {
	Host   string
	APIKey string

	// Comma-separated keyword lists used to classify nearby groups.
	PUGBlacklist string
	PUGWhitelist string

	RequestDelay   time.Duration
	ChapterDelay   time.Duration
	NearbyRadius   float64
	NearbyCategory int
	NearbyPageSize int
	Retries        int
}

// Error reports a missing or invalid configuration value.
type Error struct {
	Section string
	Key     string
	Reason  string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: [%s]: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("config: [%s] %s: %s", e.Section, e.Key, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

type sections map[string]map[string]string

// Load reads the configuration file at path, applies environment overrides and
// the output directory override (ignored when empty), and validates the result.
func Load(path, outputOverride string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var (
		raw sections
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		raw, err = readTOML(path)
	} else {
		raw, err = readINI(path)
	}
	if err != nil {
		return nil, err
	}

	return build(raw, outputOverride)
}

func readINI(path string) (sections, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	raw := make(sections)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		raw[sec.Name()] = sec.KeysHash()
	}
	return raw, nil
}

func readTOML(path string) (sections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var doc map[string]map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	raw := make(sections, len(doc))
	for name, table := range doc {
		keys := make(map[string]string, len(table))
		for k, v := range table {
			keys[k] = fmt.Sprint(v)
		}
		raw[name] = keys
	}
	return raw, nil
}

func build(raw sections, outputOverride string) (*Config, error) {
	main, ok := raw["main"]
	if !ok {
		main = map[string]string{}
	}
	meetup, ok := raw["meetup"]
	if !ok {
		return nil, &Error{Section: "meetup", Reason: "section missing"}
	}

	cfg := &Config{
		Main: Main{
			OutputDir:   strings.TrimSpace(main["output_dir"]),
			LogLevel:    strings.TrimSpace(main["log_level"]),
			RegistryURL: strings.TrimSpace(main["registry_url"]),
		},
		Meetup: Meetup{
			Host:         strings.TrimRight(strings.TrimSpace(meetup["host"]), "/"),
			APIKey:       strings.TrimSpace(meetup["api_key"]),
			PUGBlacklist: meetup["pug_blacklist"],
			PUGWhitelist: meetup["pug_whitelist"],
		},
	}

	if key, ok := os.LookupEnv(EnvAPIKey); ok && key != "" {
		cfg.Meetup.APIKey = key
	}

	dir, err := OutputDir(outputOverride, cfg.Main.OutputDir)
	if err != nil {
		return nil, err
	}
	cfg.Main.OutputDir = dir

	if cfg.Main.LogLevel == "" {
		cfg.Main.LogLevel = DefaultLogLevel
	}
	if cfg.Main.RegistryURL == "" {
		cfg.Main.RegistryURL = DefaultRegistryURL
	}

	for _, req := range []struct{ key, val string }{
		{"host", cfg.Meetup.Host},
		{"api_key", cfg.Meetup.APIKey},
		{"pug_blacklist", cfg.Meetup.PUGBlacklist},
		{"pug_whitelist", cfg.Meetup.PUGWhitelist},
	} {
		if strings.TrimSpace(req.val) == "" {
			return nil, &Error{Section: "meetup", Key: req.key, Reason: "required value missing"}
		}
	}

	if cfg.Meetup.RequestDelay, err = durationOr(meetup, "request_delay", DefaultRequestDelay); err != nil {
		return nil, err
	}
	if cfg.Meetup.ChapterDelay, err = durationOr(meetup, "chapter_delay", DefaultChapterDelay); err != nil {
		return nil, err
	}
	if cfg.Meetup.NearbyRadius, err = floatOr(meetup, "nearby_radius", DefaultNearbyRadius); err != nil {
		return nil, err
	}
	if cfg.Meetup.NearbyCategory, err = intOr(meetup, "nearby_category", DefaultNearbyCategory); err != nil {
		return nil, err
	}
	if cfg.Meetup.NearbyPageSize, err = intOr(meetup, "nearby_page_size", DefaultNearbyPageSize); err != nil {
		return nil, err
	}
	if cfg.Meetup.Retries, err = intOr(meetup, "retries", DefaultRetries); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OutputDir resolves the absolute output directory. Precedence is override,
// then the PYLADIES_OUTPUT_DIR environment variable, then fromFile, then
// DefaultOutputDir.
func OutputDir(override, fromFile string) (string, error) {
	dir := fromFile
	switch {
	case override != "":
		dir = override
	case os.Getenv(EnvOutputDir) != "":
		dir = os.Getenv(EnvOutputDir)
	case dir == "":
		dir = DefaultOutputDir
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &Error{Section: "main", Key: "output_dir", Reason: err.Error()}
	}
	return abs, nil
}

func durationOr(sec map[string]string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(sec[key])
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, &Error{Section: "meetup", Key: key, Reason: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}

func floatOr(sec map[string]string, key string, def float64) (float64, error) {
	v := strings.TrimSpace(sec[key])
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, &Error{Section: "meetup", Key: key, Reason: fmt.Sprintf("invalid number %q", v)}
	}
	return f, nil
}

func intOr(sec map[string]string, key string, def int) (int, error) {
	v := strings.TrimSpace(sec[key])
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &Error{Section: "meetup", Key: key, Reason: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}

// SplitTerms splits a comma-separated term list, trimming whitespace and
// dropping empty entries.
func SplitTerms(list string) []string {
	parts := strings.Split(list, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}
