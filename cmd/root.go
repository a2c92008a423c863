// Package cmd implements the command-line interface for the security
// news scraper: crawling, scheduling, serving the query API and
// inspecting stored articles.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/secnews/cmd/crawl"
	"github.com/jonesrussell/secnews/cmd/httpd"
	"github.com/jonesrussell/secnews/cmd/importer"
	cmdscheduler "github.com/jonesrussell/secnews/cmd/scheduler"
	"github.com/jonesrussell/secnews/cmd/search"
	cmdsources "github.com/jonesrussell/secnews/cmd/sources"
	"github.com/jonesrussell/secnews/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "secnews",
		Short: "A security news scraper and query service",
		Long:  `Scrapes security news sites into article storage and serves them over a read-only HTTP API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("secnews version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(cmdsources.Command())
	rootCmd.AddCommand(importer.Command())
}

// initConfig wires viper: config file, environment variables, defaults.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// The config file is optional; environment variables and defaults
	// cover a bare deployment.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	if debug || viper.GetBool("app.debug") {
		viper.Set("app.debug", true)
		viper.Set("logger.level", "debug")
	}
	if viper.GetString("app.environment") == "development" {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	return nil
}

// bindEnvVars maps well-known environment variables to config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"app.environment":                 {"APP_ENV"},
		"app.debug":                       {"APP_DEBUG"},
		"logger.level":                    {"LOG_LEVEL"},
		"logger.encoding":                 {"LOG_FORMAT"},
		"storage.backend":                 {"STORAGE_BACKEND"},
		"storage.file.path":               {"STORAGE_FILE_PATH"},
		"storage.elasticsearch.addresses": {"ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"},
		"storage.elasticsearch.password":  {"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"},
		"storage.elasticsearch.api_key":   {"ELASTICSEARCH_API_KEY"},
		"database.dsn":                    {"DATABASE_DSN"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "secnews",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"development": false,
		"encoding":    "json",
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("storage", map[string]any{
		"backend": config.BackendFile,
		"file": map[string]any{
			"path": "articles.csv",
		},
		"elasticsearch": map[string]any{
			"addresses":  []string{"http://127.0.0.1:9200"},
			"index_name": "articles",
		},
	})

	viper.SetDefault("scraper", map[string]any{
		"sources_file":    "sources.yml",
		"user_agent":      "secnews/1.0",
		"request_timeout": "10s",
		"snippet_length":  config.DefaultSnippetLength,
		"max_pages":       config.DefaultMaxPages,
		"interval":        "30m",
		"failure_backoff": "1m",
	})
}
