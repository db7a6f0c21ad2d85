// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the memo-combiner CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/memo-combiner/pkg/types"
)

const appName = "memo-combiner"

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs the whole batch: scrape the listing page, download every
// document, and repack the downloads into word-bounded merged PDFs.
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Download and combine PDF memoranda from a listing page",
	Long: `memo-combiner scrapes a listing page for PDF links, downloads each
document (skipping files whose local copy is already current), and merges
the downloads into combined PDFs bounded by an approximate word budget.

The run is a single batch operation; configuration comes from flags,
a config file (memo-combiner.yaml), or MEMO_COMBINER_* environment
variables.`,
	RunE: runBatch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./memo-combiner.yaml or ~/.config/memo-combiner/config.yaml)")

	rootCmd.Flags().String("listing-url", "", "listing page enumerating document links")
	rootCmd.Flags().String("download-dir", "", "absolute directory for downloaded PDFs")
	rootCmd.Flags().String("output-dir", "", "absolute directory for merged PDFs")
	rootCmd.Flags().Int("max-retries", 0, "fetch attempts per URL for transient failures")
	rootCmd.Flags().Int("word-limit", 0, "approximate maximum words per merged PDF")
	rootCmd.Flags().Bool("force", false, "re-download documents even when the local copy is current")

	viper.BindPFlag("scrape.listing_url", rootCmd.Flags().Lookup("listing-url"))
	viper.BindPFlag("download.download_dir", rootCmd.Flags().Lookup("download-dir"))
	viper.BindPFlag("combine.output_dir", rootCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("download.max_retries", rootCmd.Flags().Lookup("max-retries"))
	viper.BindPFlag("combine.word_limit", rootCmd.Flags().Lookup("word-limit"))
	viper.BindPFlag("download.force", rootCmd.Flags().Lookup("force"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	viper.SetEnvPrefix("MEMO_COMBINER")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	dataDir := filepath.Join(home, "Downloads", appName)

	viper.SetDefault("scrape.base_url", "https://www.whitehouse.gov")
	viper.SetDefault("scrape.listing_url", "https://www.whitehouse.gov/omb/information-for-agencies/memoranda/")
	viper.SetDefault("scrape.link_pattern", `.*\.pdf$`)
	viper.SetDefault("scrape.timeout", "30s")
	viper.SetDefault("scrape.user_agent", appName+"/0.1")

	viper.SetDefault("download.download_dir", filepath.Join(dataDir, "pdfs"))
	viper.SetDefault("download.max_retries", 3)
	viper.SetDefault("download.force", false)
	viper.SetDefault("download.timeout", "30s")
	viper.SetDefault("download.user_agent", appName+"/0.1")

	viper.SetDefault("combine.output_dir", filepath.Join(dataDir, "combined"))
	viper.SetDefault("combine.word_limit", 50000)

	viper.SetDefault("log.log_dir", filepath.Join(dataDir, "logs"))
	viper.SetDefault("manifest_path", filepath.Join(dataDir, "manifest.db"))
}

// buildConfig materializes the immutable run configuration from viper.
func buildConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Scrape: types.ScrapeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("scrape.timeout"),
				UserAgent: viper.GetString("scrape.user_agent"),
			},
			BaseURL:     viper.GetString("scrape.base_url"),
			ListingURL:  viper.GetString("scrape.listing_url"),
			LinkPattern: viper.GetString("scrape.link_pattern"),
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: viper.GetString("download.user_agent"),
			},
			DownloadDir: viper.GetString("download.download_dir"),
			MaxRetries:  viper.GetInt("download.max_retries"),
			Force:       viper.GetBool("download.force"),
		},
		Combine: types.CombineConfig{
			OutputDir: viper.GetString("combine.output_dir"),
			WordLimit: viper.GetInt("combine.word_limit"),
		},
		Log: types.LogConfig{
			LogDir: viper.GetString("log.log_dir"),
		},
		ManifestPath: viper.GetString("manifest_path"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
