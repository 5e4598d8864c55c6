package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfenderov/draftpress/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "draftpress",
	Short: "draftpress: turn a Word archive into illustrated WordPress drafts",
	Long: `draftpress downloads a ZIP of .docx articles, converts each one to HTML,
generates an illustration, and creates a draft post with that image as the
featured media. Documents that fail at any step are skipped.

Running draftpress without a command performs a full run.

Commands:
  run      Download the archive and publish every document as a draft
  preview  Convert one document locally without publishing it
  history  Search the publication journal
  serve    Start the MCP server`,
	SilenceUsage: true,
	RunE:         runPublish,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// envBindings maps config keys to environment variables, first match wins.
// ZIP_URL, OPENAI_API_KEY, WP_USER and WP_APP_PASSWORD are also accepted.
var envBindings = map[string][]string{
	"source.archive_url":        {"DRAFTPRESS_SOURCE_ARCHIVE_URL", "ZIP_URL"},
	"source.archive_path":       {"DRAFTPRESS_SOURCE_ARCHIVE_PATH"},
	"source.work_dir":           {"DRAFTPRESS_SOURCE_WORK_DIR"},
	"converter.strategy":        {"DRAFTPRESS_CONVERTER_STRATEGY"},
	"images.api_key":            {"DRAFTPRESS_IMAGES_API_KEY", "OPENAI_API_KEY"},
	"images.base_url":           {"DRAFTPRESS_IMAGES_BASE_URL"},
	"images.model":              {"DRAFTPRESS_IMAGES_MODEL"},
	"images.size":               {"DRAFTPRESS_IMAGES_SIZE"},
	"images.quality":            {"DRAFTPRESS_IMAGES_QUALITY"},
	"images.prompt":             {"DRAFTPRESS_IMAGES_PROMPT"},
	"wordpress.site_url":        {"DRAFTPRESS_WORDPRESS_SITE_URL"},
	"wordpress.username":        {"DRAFTPRESS_WORDPRESS_USERNAME", "WP_USER"},
	"wordpress.app_password":    {"DRAFTPRESS_WORDPRESS_APP_PASSWORD", "WP_APP_PASSWORD"},
	"wordpress.category_id":     {"DRAFTPRESS_WORDPRESS_CATEGORY_ID"},
	"http.timeout":              {"DRAFTPRESS_HTTP_TIMEOUT"},
	"storage.enabled":           {"DRAFTPRESS_STORAGE_ENABLED"},
	"storage.endpoint":          {"DRAFTPRESS_STORAGE_ENDPOINT"},
	"storage.bucket":            {"DRAFTPRESS_STORAGE_BUCKET"},
	"storage.access_key_id":     {"DRAFTPRESS_STORAGE_ACCESS_KEY_ID"},
	"storage.secret_access_key": {"DRAFTPRESS_STORAGE_SECRET_ACCESS_KEY"},
	"storage.use_ssl":           {"DRAFTPRESS_STORAGE_USE_SSL"},
	"journal.enabled":           {"DRAFTPRESS_JOURNAL_ENABLED"},
	"journal.index":             {"DRAFTPRESS_JOURNAL_INDEX"},
	"journal.username":          {"DRAFTPRESS_JOURNAL_USERNAME"},
	"journal.password":          {"DRAFTPRESS_JOURNAL_PASSWORD"},
	"metrics.pushgateway_url":   {"DRAFTPRESS_METRICS_PUSHGATEWAY_URL"},
	"metrics.job":               {"DRAFTPRESS_METRICS_JOB"},
	"mcp.name":                  {"DRAFTPRESS_MCP_NAME"},
	"mcp.version":               {"DRAFTPRESS_MCP_VERSION"},
}

func initConfig() {
	cfg = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig merges defaults, the config file and the environment.
func loadConfig(v *viper.Viper, file string) config.Config {
	// Start with defaults
	c := config.Defaults()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/draftpress")
		v.AddConfigPath(".")
	}

	// DRAFTPRESS_WORDPRESS_SITE_URL -> wordpress.site_url
	v.SetEnvPrefix("DRAFTPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range envBindings {
		v.BindEnv(append([]string{key}, names...)...)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := v.Unmarshal(&c); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Addresses come as a comma-separated string from env
	if addrs := os.Getenv("DRAFTPRESS_JOURNAL_ADDRESSES"); addrs != "" {
		c.Journal.Addresses = strings.Split(addrs, ",")
	}

	return c
}
