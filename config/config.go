// Package config loads the job description: which feeds to merge and where to publish them.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"epg-combiner/consts"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Sources []Source `yaml:"epg_sources" validate:"dive"`
	Indexes []Index  `yaml:"epg_indexes" validate:"dive"`
	GitHub  GitHub   `yaml:"github"`
	HTTP    HTTP     `yaml:"http"`
}

// Source is one compressed XMLTV feed.
type Source struct {
	URL string `yaml:"url" validate:"required,url"`
}

// Index is an HTML page whose links point at feeds.
type Index struct {
	URL      string `yaml:"url" validate:"required,url"`
	Selector string `yaml:"selector"`
}

type GitHub struct {
	RepoName string `yaml:"repo_name" validate:"required"`
	Token    string `yaml:"token" validate:"required"`
	Owner    string `yaml:"owner"`
	Branch   string `yaml:"branch"`
	// APIURL targets GitHub Enterprise; empty means api.github.com.
	APIURL string `yaml:"api_url" validate:"omitempty,url"`
}

type HTTP struct {
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	UserAgent string        `yaml:"user_agent"`
}

// Error reports which stage of loading failed.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var ErrNoSources = errors.New("no epg_sources or epg_indexes configured")

var validate = validator.New()

// Load reads path, applies the environment overlay and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Op: "parse", Path: path, Err: err}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Op: "validate", Path: path, Err: err}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(consts.GITHUB_TOKEN_ENV); token != "" {
		c.GitHub.Token = token
	}
}

func (c *Config) applyDefaults() {
	for i := range c.Indexes {
		if c.Indexes[i].Selector == "" {
			c.Indexes[i].Selector = consts.DEFAULT_INDEX_SELECTOR
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 && len(c.Indexes) == 0 {
		return ErrNoSources
	}
	return validate.Struct(c)
}

// SourceURLs returns the configured feed URLs in order.
func (c *Config) SourceURLs() []string {
	urls := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		urls = append(urls, s.URL)
	}
	return urls
}
