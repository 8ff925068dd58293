// Package config loads the pipeline configuration from an optional YAML file
// and DOCPIPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DOCPIPE_STORE_PATH.
const EnvPrefix = "DOCPIPE"

// Config holds all pipeline configuration.
type Config struct {
	// DataDir is the root of the site download directories.
	DataDir    string   `mapstructure:"data_dir" validate:"required"`
	StorePath  string   `mapstructure:"store_path" validate:"required"`
	Cache      Cache    `mapstructure:"cache"`
	Sites      []Site   `mapstructure:"sites" validate:"min=1,dive"`
	Extensions []string `mapstructure:"extensions" validate:"min=1,dive,startswith=."`
	Stages     Stages   `mapstructure:"stages"`
	Analysis   Analysis `mapstructure:"analysis"`
	Scraper    Scraper  `mapstructure:"scraper"`
	Serve      Serve    `mapstructure:"serve"`
}

// Cache locates the result cache. S3 is used when S3.Endpoint is set,
// otherwise the JSON file at Path.
type Cache struct {
	Path string `mapstructure:"path"`
	S3   S3     `mapstructure:"s3"`
}

// S3 holds S3/MinIO storage configuration.
type S3 struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket" validate:"required_with=Endpoint"`
	Object          string `mapstructure:"object"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Site is one configured source site.
type Site struct {
	Name      string   `mapstructure:"name" validate:"required"`
	BaseURL   string   `mapstructure:"base_url" validate:"omitempty,url"`
	Dirs      []string `mapstructure:"dirs"`
	Fragments []string `mapstructure:"fragments"`
}

// Stage configures how one stage is invoked.
type Stage struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// Command overrides the stage argv. Empty means the docpipe executable
	// itself with the stage subcommand.
	Command []string `mapstructure:"command"`
}

// Stages configures every stage. The scrape timeout applies per site.
type Stages struct {
	Scrape     Stage `mapstructure:"scrape"`
	Convert    Stage `mapstructure:"convert"`
	Ingest     Stage `mapstructure:"ingest"`
	Reorganize Stage `mapstructure:"reorganize"`
	Analyze    Stage `mapstructure:"analyze"`
}

// Analysis configures extraction and classification.
type Analysis struct {
	Model             string          `mapstructure:"model"`
	MaxPages          int             `mapstructure:"max_pages" validate:"gte=0"`
	MaxChars          int             `mapstructure:"max_chars" validate:"gte=100"`
	MinTextLength     int             `mapstructure:"min_text_length" validate:"gte=0"`
	Concurrency       int             `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	RequestsPerSecond float64         `mapstructure:"requests_per_second" validate:"gt=0"`
	RetryDelays       []time.Duration `mapstructure:"retry_delays"`
	Limit             int             `mapstructure:"limit" validate:"gte=0"`
}

// Scraper holds web scraping configuration.
type Scraper struct {
	Delay       time.Duration `mapstructure:"delay"`
	MaxDepth    int           `mapstructure:"max_depth" validate:"gte=1"`
	Parallelism int           `mapstructure:"parallelism" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	SavePages   bool          `mapstructure:"save_pages"`

	// Sitemaps seeds each crawl with the site's sitemap URLs.
	Sitemaps     bool `mapstructure:"sitemaps"`
	SitemapPages int  `mapstructure:"sitemap_pages" validate:"gte=0"`
}

// Serve configures the optional long-running server started after the
// stages.
type Serve struct {
	Command []string `mapstructure:"command"`
}

// Defaults returns a Config with the reference sites and stage budgets.
func Defaults() Config {
	return Config{
		DataDir:   ".",
		StorePath: "docpipe.db",
		Cache: Cache{
			Path: "pdf_analysis_results.json",
			S3:   S3{Object: "pdf_analysis_results.json"},
		},
		Sites: []Site{
			{Name: "agriculture.gov.ma", Fragments: []string{"agriculture.gov.ma/pdf_downloads"}},
			{Name: "cese.ma", Fragments: []string{"cese.ma/pdf_downloads"}},
			{Name: "finances.gov.ma", Fragments: []string{"finances.gov.ma/pdf_downloads"}},
			{Name: "oecd.org", Fragments: []string{"oecd.org/pdf_downloads"}},
			{
				Name: "bkam.ma",
				Fragments: []string{
					"bkam.ma/bkam.ma/pdf_downloads/Communiques/pdf_scraper",
					"bkam.ma/bkam.ma/pdf_downloads/Discours/pdf_scraper",
				},
			},
		},
		Extensions: []string{".pdf", ".docx", ".md"},
		Stages: Stages{
			Scrape:     Stage{Timeout: 20 * time.Minute},
			Convert:    Stage{Timeout: 30 * time.Minute},
			Ingest:     Stage{Timeout: 30 * time.Minute},
			Reorganize: Stage{Timeout: 5 * time.Minute},
			Analyze:    Stage{Timeout: 60 * time.Minute},
		},
		Analysis: Analysis{
			Model:             "gemini-2.5-flash",
			MaxPages:          3,
			MaxChars:          4000,
			MinTextLength:     docpipe.DefaultMinTextLength,
			Concurrency:       4,
			RequestsPerSecond: 2,
			RetryDelays:       []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		},
		Scraper: Scraper{
			Delay:       1 * time.Second,
			MaxDepth:    2,
			Parallelism: 2,
			Timeout:     60 * time.Second,
			UserAgent:   "docpipe/1.0",
			SavePages:   true,

			Sitemaps:     true,
			SitemapPages: 200,
		},
	}
}

// envKeys are the scalar settings that may be overridden from the
// environment.
var envKeys = []string{
	"data_dir",
	"store_path",
	"cache.path",
	"cache.s3.endpoint",
	"cache.s3.bucket",
	"cache.s3.object",
	"cache.s3.access_key_id",
	"cache.s3.secret_access_key",
	"cache.s3.use_ssl",
	"stages.scrape.timeout",
	"stages.convert.timeout",
	"stages.ingest.timeout",
	"stages.reorganize.timeout",
	"stages.analyze.timeout",
	"analysis.model",
	"analysis.max_pages",
	"analysis.max_chars",
	"analysis.min_text_length",
	"analysis.concurrency",
	"analysis.requests_per_second",
	"analysis.limit",
	"scraper.delay",
	"scraper.max_depth",
	"scraper.parallelism",
	"scraper.timeout",
	"scraper.user_agent",
	"scraper.save_pages",
	"scraper.sitemaps",
	"scraper.sitemap_pages",
}

// Load reads configuration from path, or from docpipe.yaml in the working
// directory when path is empty, then applies environment overrides and
// validates the result. A missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("docpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// DOCPIPE_ANALYSIS_MAX_PAGES -> analysis.max_pages
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, docpipe.Errorf(docpipe.EINVALID, "read config: %s", err)
		}
	}

	// Configured lists replace the defaults instead of merging by index.
	if v.IsSet("sites") {
		cfg.Sites = nil
	}
	if v.IsSet("extensions") {
		cfg.Extensions = nil
	}
	if v.IsSet("analysis.retry_delays") {
		cfg.Analysis.RetryDelays = nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, docpipe.Errorf(docpipe.EINVALID, "parse config: %s", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Stored document paths are absolute, so the data root must be too.
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.EINVALID, "data_dir: %s", err)
	}
	cfg.DataDir = dataDir
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return docpipe.Errorf(docpipe.EINVALID, "invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return docpipe.Errorf(docpipe.EINVALID, "invalid config: %s", err)
	}
	if c.Cache.Path == "" && c.Cache.S3.Endpoint == "" {
		return docpipe.Errorf(docpipe.EINVALID, "invalid config: cache.path or cache.s3.endpoint required")
	}

	seen := make(map[string]bool)
	for _, s := range c.Sites {
		if seen[s.Name] {
			return docpipe.Errorf(docpipe.EINVALID, "invalid config: duplicate site %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// SiteDefinitions converts the configured sites to domain definitions.
// Sites without download directories use their first fragment, or their
// name.
func (c *Config) SiteDefinitions() []docpipe.SiteDefinition {
	defs := make([]docpipe.SiteDefinition, 0, len(c.Sites))
	for _, s := range c.Sites {
		dirs := s.Dirs
		if len(dirs) == 0 && len(s.Fragments) > 0 {
			dirs = s.Fragments
		}
		defs = append(defs, docpipe.SiteDefinition{
			Name:      s.Name,
			BaseURL:   s.BaseURL,
			Dirs:      dirs,
			Fragments: s.Fragments,
		})
	}
	return defs
}

// Site returns the definition of the named site.
func (c *Config) Site(name string) (docpipe.SiteDefinition, error) {
	for _, def := range c.SiteDefinitions() {
		if def.Name == name {
			return def, nil
		}
	}
	return docpipe.SiteDefinition{}, docpipe.Errorf(docpipe.ENOTFOUND, "site %q not configured", name)
}

// StageConfig returns the invocation settings of a pipeline stage.
func (c *Config) StageConfig(stage docpipe.Stage) (Stage, error) {
	switch stage {
	case docpipe.StageScrape:
		return c.Stages.Scrape, nil
	case docpipe.StageConvert:
		return c.Stages.Convert, nil
	case docpipe.StageIngest:
		return c.Stages.Ingest, nil
	case docpipe.StageReorganize:
		return c.Stages.Reorganize, nil
	case docpipe.StageAnalyze:
		return c.Stages.Analyze, nil
	}
	return Stage{}, fmt.Errorf("unknown stage %q", stage)
}
