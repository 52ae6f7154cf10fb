package config

import (
	"fmt"
	"io"
	"os"

	"github.com/brogergvhs/ranobed/internal/markup"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkers       = 5
	DefaultRetries       = 3
	DefaultCoverMaxWidth = 1200
)

type Config struct {
	Output         string `yaml:"output"`
	Format         string `yaml:"format"`
	ChapterWorkers int    `yaml:"chapter_workers"`
	ImageWorkers   int    `yaml:"image_workers"`
	Debug          bool   `yaml:"debug"`

	DefaultURL   string `yaml:"default_url"`
	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	Cookie           string  `yaml:"cookie"`
	CookieFile       string  `yaml:"cookie_file"`
	UserAgent        string  `yaml:"user_agent"`
	CloudflareBypass bool    `yaml:"cloudflare_bypass"`
	RateLimit        float64 `yaml:"rate_limit"`
	Retries          int     `yaml:"retries"`

	CoverJPEG     bool `yaml:"cover_jpeg"`
	CoverMaxWidth int  `yaml:"cover_max_width"`

	Editor string `yaml:"editor"`
}

// Options carries command line overrides. Zero values leave the loaded
// profile untouched.
type Options struct {
	IgnoreConfig     bool
	Debug            bool
	Output           string
	Format           string
	ChapterWorkers   int
	ImageWorkers     int
	DefaultURL       string
	DefaultRange     string
	DefaultList      string
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	RateLimit        float64
	Retries          int
}

func DefaultConfig() *Config {
	return &Config{
		Output:         ".",
		Format:         markup.FB2.Name,
		ChapterWorkers: DefaultWorkers,
		ImageWorkers:   DefaultWorkers,
		Retries:        DefaultRetries,
		CoverJPEG:      true,
		CoverMaxWidth:  DefaultCoverMaxWidth,
	}
}

// Markup returns the output format, falling back to FB2.
func (c *Config) Markup() markup.Format {
	if f, ok := markup.ParseFormat(c.Format); ok {
		return f
	}
	return markup.FB2
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Missing keys keep their defaults.
	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged reads the active profile, applies opts on top and returns
// the result together with a description of where it came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `ranobed config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.Debug {
		c.Debug = true
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.RateLimit > 0 {
		c.RateLimit = o.RateLimit
	}
	if o.Retries != 0 {
		c.Retries = o.Retries
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	c.Format = c.Markup().Name
	if c.ChapterWorkers <= 0 {
		c.ChapterWorkers = DefaultWorkers
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = DefaultWorkers
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	if c.CoverMaxWidth < 0 {
		c.CoverMaxWidth = 0
	}
}

// Print lists the effective settings. Secrets are never shown.
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -output: %s\n", c.Output)
	fmt.Fprintf(w, " -format: %s\n", c.Format)
	fmt.Fprintf(w, " -chapter_workers: %d\n", c.ChapterWorkers)
	fmt.Fprintf(w, " -image_workers: %d\n", c.ImageWorkers)
	fmt.Fprintf(w, " -retries: %d\n", c.Retries)
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.DefaultURL != "" {
		fmt.Fprintf(w, " -url: %s\n", c.DefaultURL)
	}
	if c.DefaultRange != "" {
		fmt.Fprintf(w, " -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		fmt.Fprintf(w, " -list: %s\n", c.DefaultList)
	}
	if c.Cookie != "" {
		fmt.Fprintf(w, " -cookie: (set)\n")
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.CloudflareBypass {
		fmt.Fprintf(w, " -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.RateLimit > 0 {
		fmt.Fprintf(w, " -rate_limit: %g/s\n", c.RateLimit)
	}
	fmt.Fprintf(w, " -cover_jpeg: %t\n", c.CoverJPEG)
	if c.CoverMaxWidth > 0 {
		fmt.Fprintf(w, " -cover_max_width: %d\n", c.CoverMaxWidth)
	}
	if c.Editor != "" {
		fmt.Fprintf(w, " -editor: %s\n", c.Editor)
	}
}
