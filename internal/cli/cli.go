package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/pyladies-meetup/internal/collector"
	"github.com/pfrederiksen/pyladies-meetup/internal/config"
	"github.com/pfrederiksen/pyladies-meetup/internal/growth"
	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
	"github.com/pfrederiksen/pyladies-meetup/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagOutput   string
	flagConfig   string
	flagLogLevel string
	flagFormat   string
	flagChapter  string
	flagSort     string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pyladies",
		Short: "Collect and report PyLadies Meetup membership data",
		Long: `A CLI tool to collect PyLadies chapter and nearby Python user group
membership data from the Meetup API, and to report member growth from it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is not an error.
			_ = godotenv.Load()
			return nil
		},
	}

	cmd.AddCommand(newGetDataCmd(), newGrowthCmd())
	return cmd
}

func newGetDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getdata",
		Short: "Get PyLadies and nearby PUG group and member data",
		Args:  cobra.NoArgs,
		RunE:  runGetData,
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default: config, $"+config.EnvOutputDir+", or ./"+config.DefaultOutputDir+")")
	cmd.Flags().StringVarP(&flagConfig, "config", "c", config.DefaultPath, "Configuration file (.ini or .toml)")
	cmd.Flags().StringVarP(&flagLogLevel, "log-level", "l", "", "Log level: debug, info, warn or error (default: config, or "+config.DefaultLogLevel+")")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format: text or json")

	return cmd
}

func newGrowthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "growth",
		Short: "Report member growth per month from collected data",
		Args:  cobra.NoArgs,
		RunE:  runGrowth,
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Directory written by getdata (default: $"+config.EnvOutputDir+" or ./"+config.DefaultOutputDir+")")
	cmd.Flags().StringVar(&flagChapter, "chapter", "", "Only report this chapter (group name or directory name)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or csv")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByName), "Chapter order: name or members")

	return cmd
}

// runGetData loads configuration and runs one collection pass
func runGetData(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig, flagOutput)
	if err != nil {
		return err
	}

	levelName := flagLogLevel
	if levelName == "" {
		levelName = cfg.Main.LogLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	logger.Debug("Loaded configuration", logger.Fields{
		"config":       flagConfig,
		"output_dir":   cfg.Main.OutputDir,
		"registry_url": cfg.Main.RegistryURL,
	})

	store, err := storage.New(cfg.Main.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	logger.Info("Starting collection run", logger.Fields{"output_dir": store.Dir()})
	summary, runErr := collector.New(cfg, store).Run(cmd.Context())
	if runErr != nil {
		logger.Error("Collection run did not complete", logger.Fields{"config": flagConfig}, runErr)
	}
	if summary != nil {
		if err := WriteSummary(cmd.OutOrStdout(), summary, format); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return runErr
}

// runGrowth reports member growth from a previous run's output
func runGrowth(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON && format != FormatCSV {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'csv')", flagFormat)
	}

	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByName && order != SortByMembers {
		return fmt.Errorf("invalid sort order: %s (must be 'name' or 'members')", flagSort)
	}

	dir, err := config.OutputDir(flagOutput, "")
	if err != nil {
		return err
	}

	store, err := storage.New(dir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	reports, err := growth.LoadAll(store, flagChapter)
	if err != nil {
		return fmt.Errorf("loading collected data: %w", err)
	}

	sortReports(reports, order)

	if err := WriteGrowth(cmd.OutOrStdout(), reports, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
