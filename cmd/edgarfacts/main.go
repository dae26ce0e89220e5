// edgarfacts — SEC EDGAR XBRL metric extraction
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/internal/edgar"
	"github.com/seenimoa/edgarfacts/internal/export"
	"github.com/seenimoa/edgarfacts/internal/fetch"
	"github.com/seenimoa/edgarfacts/internal/pipeline"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edgarfacts",
	Short: "edgarfacts — pull financial facts out of SEC EDGAR filings",
	Long: `edgarfacts pulls company financial facts straight from SEC EDGAR.

Given a set of companies, a filing type, and a target period, it finds each
company's filing, downloads the XBRL instance document, extracts the
configured us-gaap metrics with their reporting windows, and writes
everything to a single CSV or Excel table alongside a run report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		override, _ := cmd.Flags().GetString("log-level")
		setupLogging(cfg.Logging, override)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures the global zerolog logger from config, with
// an optional level override from the command line.
func setupLogging(logCfg config.LoggingConfig, override string) {
	level := logCfg.Level
	if override != "" {
		level = override
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if logCfg.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// newLocator picks the listing source configured under filing.source.
func newLocator(client *fetch.Client) pipeline.Locator {
	if cfg.Filing.Source == "atom" {
		return edgar.NewFeedLocator(client, cfg.Filing)
	}
	return edgar.NewLocator(client, cfg.Filing)
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract the configured metrics and export the table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx := log.Logger.WithContext(cmd.Context())
		client := fetch.New(cfg.HTTP)

		table, report, err := pipeline.New(cfg, client, newLocator(client)).BuildTable(ctx)
		if err != nil {
			return err
		}

		exporter, err := export.ForConfig(cfg.Output, cfg.AncillaryFields)
		if err != nil {
			return err
		}
		if err := exporter.Export(table); err != nil {
			return fmt.Errorf("exporting table: %w", err)
		}

		fmt.Printf("✅ wrote %d rows to %s\n", table.Len(), cfg.Output.Path)
		fmt.Print(report.Summary())
		return nil
	},
}

// --- Locate Command ---

var locateCmd = &cobra.Command{
	Use:   "locate [company]",
	Short: "Resolve the filing and instance document URLs for one company",
	Long:  "Resolve one configured company's filing index URL and XBRL instance document URL without extracting anything. Debugging aid.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		name := args[0]
		cik, ok := cfg.Companies[name]
		if !ok {
			return fmt.Errorf("company %q not in config (have: %s)", name, strings.Join(companyNames(), ", "))
		}

		ctx := log.Logger.WithContext(cmd.Context())
		client := fetch.New(cfg.HTTP)

		fmt.Printf("🔍 %s (CIK %s), %s filings, period %s\n",
			name, edgar.PadCIK(cik), cfg.Filing.Type, cfg.TargetPeriod)

		filingURL, err := newLocator(client).Locate(ctx, cik, cfg.TargetPeriod)
		if err != nil {
			return err
		}
		fmt.Printf("  filing:   %s\n", filingURL)

		instanceURL, err := edgar.ResolveInstanceDoc(ctx, client, filingURL)
		if err != nil {
			return err
		}
		fmt.Printf("  instance: %s\n", instanceURL)
		return nil
	},
}

func companyNames() []string {
	names := make([]string, 0, len(cfg.Companies))
	for _, c := range pipeline.SortedCompanies(cfg) {
		names = append(names, c.Name)
	}
	return names
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("edgarfacts %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}
