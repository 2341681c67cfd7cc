package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DonIsaac/keyhunter/internal/core"
	"github.com/DonIsaac/keyhunter/internal/keyerr"
	"github.com/DonIsaac/keyhunter/internal/keys"
	"github.com/DonIsaac/keyhunter/internal/report"
	"github.com/DonIsaac/keyhunter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile string
	verbose    bool
	logFile    string

	headers  []string
	format   string
	maxDepth int
	maxPages int
	rules    string
)

var rootCmd = &cobra.Command{
	Use:   "keyhunter <SEED_URL>",
	Short: "Same-origin crawler that scans JavaScript for leaked secrets",
	Long: `keyhunter walks every page reachable from a seed URL without leaving
its origin, downloads every script those pages reference, and scans each one
against a pattern catalogue of API keys, tokens, and other secrets.

Findings and non-fatal diagnostics are printed as they're found; a summary
line follows once the crawl finishes. Exit code 0 means the scan completed
(regardless of whether anything was found), 1 means the seed URL or pattern
catalogue was invalid, and 2 means the seed was reachable but nothing could
be fetched from it.

Version: ` + Version + ` (built ` + BuildTime + `)`,
	Version: Version,
	Args:    cobra.ExactArgs(1),
	RunE:    runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write rotated logs to this path in addition to stderr")

	rootCmd.Flags().StringSliceVarP(&headers, "header", "H", []string{}, "extra request header, 'Name: Value' (repeatable)")
	rootCmd.Flags().StringVar(&format, "format", "", "output format: default or json")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum link depth from the seed URL (0 uses the config default)")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum number of pages to visit (0 uses the config default)")
	rootCmd.Flags().StringVar(&rules, "rules", "", "path to a pattern catalogue TOML file, overriding the built-in defaults")
}

func runScan(cmd *cobra.Command, args []string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		utils.Warnf("received %v, stopping", sig)
		os.Exit(130)
	}()

	seedURL := args[0]
	if err := validateFlags(seedURL, maxDepth, maxPages, format); err != nil {
		return &keyerr.ConfigError{Path: "command-line flags", Cause: err}
	}

	cfg, err := core.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyFlags(seedURL, maxDepth, maxPages, rules, format, verbose)

	logConfig := utils.LogConfig{
		Level:   cfg.Logging.Level,
		LogFile: logFile,
	}
	if logConfig.LogFile == "" {
		logConfig.LogFile = cfg.Logging.LogFile
	}
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}
	if err := utils.InitLogger(logConfig); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if err := cfg.Scan.Validate(); err != nil {
		return &keyerr.ConfigError{Path: "scan config", Cause: err}
	}

	catalogue, err := loadCatalogue(cfg.Scan.RulesPath)
	if err != nil {
		return err
	}

	headerManager, err := core.NewHeaderManager(configFile, headers)
	if err != nil {
		return fmt.Errorf("building header manager: %w", err)
	}

	reporter, err := report.New(cfg.Report.Format, os.Stdout)
	if err != nil {
		return fmt.Errorf("selecting reporter: %w", err)
	}

	resourceCfg := core.ResourceConfig{
		CPULoadThreshold:      cfg.Resource.CPULoadThreshold,
		SafetyReserveMemoryMB: cfg.Resource.SafetyReserveMemoryMB,
	}
	scanner := core.NewScanner(cfg.Scan, headerManager, catalogue, resourceCfg)

	stats, err := scanner.Run(reporter)
	if err != nil {
		return err
	}
	if stats.PagesVisited == 0 {
		return &keyerr.NoPagesFetchedError{URL: seedURL}
	}

	return nil
}

func loadCatalogue(rulesPath string) (*keys.KeyCatalogue, error) {
	if rulesPath == "" {
		cat, err := keys.LoadDefaultCatalogue()
		if err != nil {
			return nil, err
		}
		return cat, nil
	}
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, &keyerr.ConfigError{Path: rulesPath, Cause: err}
	}
	return keys.ParseCatalogue(data, rulesPath)
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keyhunter: %v\n", err)
		os.Exit(keyerr.ExitCode(err))
		return
	}
}
