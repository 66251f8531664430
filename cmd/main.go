package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"movie-extractor/adapters"
	"movie-extractor/extractor"
	"movie-extractor/internal/config"
	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

type options struct {
	output     string
	configPath string
	headless   bool
	noHeadless bool
	httpOnly   bool
	verbose    bool
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "movie-extractor",
		Short:         "Scrape the Netflix Top 10 films and look a random five up on Rotten Tomatoes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.verbose)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				logger.Errorf("Failed to load configuration: %v", err)
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = opts.headless
			}
			if opts.noHeadless {
				cfg.Headless = false
			}
			if opts.httpOnly {
				cfg.UseHeadlessBrowser = false
			}

			err = execute(cmd.Context(), cfg, logger, opts.output, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				logger.Errorf("Error: %v", err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", extractor.DefaultOutputPath, "Output file path (CSV or Excel format)")
	flags.StringVar(&opts.configPath, "config", config.DefaultFile, "Optional JSON5 configuration file")
	flags.BoolVar(&opts.headless, "headless", true, "Run browser in headless mode")
	flags.BoolVar(&opts.noHeadless, "no-headless", false, "Run browser in visible mode")
	flags.BoolVar(&opts.httpOnly, "http-only", false, "Fetch pages over plain HTTP instead of a browser")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
			return logger
		}
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func openPage(ctx context.Context, cfg *types.Config, logger types.Logger) (utils.Page, error) {
	if !cfg.UseHeadlessBrowser {
		return utils.NewStaticPage(ctx, cfg, logger), nil
	}
	return utils.NewBrowserClient(ctx, cfg, logger)
}

// execute owns the page for the whole run and releases it on every path
func execute(ctx context.Context, cfg *types.Config, logger types.Logger, output string, in io.Reader, out io.Writer) (err error) {
	logger.Info(strings.Repeat("=", 60))
	logger.Info("Netflix & Rotten Tomatoes Movie Scraper")
	logger.Info(strings.Repeat("=", 60))

	page, err := openPage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer page.Close()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Unexpected failure: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	top := adapters.NewNetflixAdapter(page, cfg, logger, utils.NewStdinSource(in, out))
	details := adapters.NewRottenTomatoesAdapter(page, cfg, logger)

	pipeline := extractor.NewPipeline(top, details, cfg, logger)
	pipeline.SetOutput(out)

	if _, err := pipeline.Run(output); err != nil {
		return err
	}
	return nil
}
