package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Source    Source    `mapstructure:"source"`
	Converter Converter `mapstructure:"converter"`
	Images    Images    `mapstructure:"images"`
	WordPress WordPress `mapstructure:"wordpress"`
	HTTP      HTTP      `mapstructure:"http"`
	Storage   Storage   `mapstructure:"storage"`
	Journal   Journal   `mapstructure:"journal"`
	Metrics   Metrics   `mapstructure:"metrics"`
	MCP       MCP       `mapstructure:"mcp"`
}

// Source holds the archive location and local working paths.
type Source struct {
	ArchiveURL  string `mapstructure:"archive_url"`
	ArchivePath string `mapstructure:"archive_path"`
	WorkDir     string `mapstructure:"work_dir"`
}

// Converter selects how documents become articles.
type Converter struct {
	Strategy string `mapstructure:"strategy"` // "paragraphs" or "document"
}

// Images holds image-generation API configuration.
type Images struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"` // Empty means the OpenAI default
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
	Quality string `mapstructure:"quality"`
	Prompt  string `mapstructure:"prompt"`
}

// WordPress holds CMS REST API configuration.
type WordPress struct {
	SiteURL     string `mapstructure:"site_url"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
	CategoryID  int    `mapstructure:"category_id"`
}

// HTTP holds shared HTTP client settings. A zero timeout means none.
type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Storage holds S3/MinIO configuration for the artifact archive.
type Storage struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Journal holds Elasticsearch configuration for the publication journal.
type Journal struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Metrics holds Prometheus Pushgateway configuration.
type Metrics struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"` // Empty disables pushing
	Job            string `mapstructure:"job"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// DefaultPrompt is the illustration prompt used for every article.
const DefaultPrompt = "Photo réaliste d'une boulangerie artisanale en France avec vitrine, croissants, baguettes et soleil"

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Source: Source{
			ArchivePath: "articles.zip",
			WorkDir:     "articles_docx",
		},
		Converter: Converter{
			Strategy: "paragraphs",
		},
		Images: Images{
			Model:   "dall-e-3",
			Size:    "1024x1024",
			Quality: "standard",
			Prompt:  DefaultPrompt,
		},
		WordPress: WordPress{
			SiteURL:    "https://societederatisation.fr",
			CategoryID: 17,
		},
		Storage: Storage{
			Enabled:         false,
			Endpoint:        "localhost:9002",
			Bucket:          "draftpress",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Journal: Journal{
			Enabled:   false,
			Addresses: []string{"http://localhost:9200"},
			Index:     "draftpress-outcomes",
		},
		Metrics: Metrics{
			Job: "draftpress",
		},
		MCP: MCP{
			Name:    "draftpress",
			Version: "1.0.0",
		},
	}
}

// Validate checks the fields a publishing run cannot do without.
// Credentials are not required: the CMS rejects the requests and the
// documents are skipped, which matches running with an empty environment.
func (c Config) Validate() error {
	if c.Source.ArchivePath == "" {
		return fmt.Errorf("source.archive_path is required")
	}
	if c.Source.WorkDir == "" {
		return fmt.Errorf("source.work_dir is required")
	}
	if c.WordPress.SiteURL == "" {
		return fmt.Errorf("wordpress.site_url is required")
	}
	switch c.Converter.Strategy {
	case "paragraphs", "document":
	default:
		return fmt.Errorf("unknown converter.strategy %q", c.Converter.Strategy)
	}
	return nil
}
