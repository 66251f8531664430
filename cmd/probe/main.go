package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"movie-extractor/adapters"
	"movie-extractor/internal/config"
	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

// probe reports how every known locator fares against live pages, to spot
// markup drift before a full run does.
func main() {
	var (
		configPath string
		httpOnly   bool
		visible    bool
		title      string
		detailURL  string
	)

	cmd := &cobra.Command{
		Use:          "probe",
		Short:        "Check listing and detail locators against the live sites",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetLevel(logrus.WarnLevel)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.UseHeadlessBrowser = !httpOnly
			cfg.Headless = !visible

			var page utils.Page
			if httpOnly {
				page = utils.NewStaticPage(cmd.Context(), cfg, logger)
			} else {
				page, err = utils.NewBrowserClient(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
			}
			defer page.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== Testing listing ===")
			probeListing(out, page, cfg)

			fmt.Fprintln(out, "\n=== Testing detail page ===")
			return probeDetail(out, page, cfg, logger, title, detailURL)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", config.DefaultFile, "Optional JSON5 configuration file")
	flags.BoolVar(&httpOnly, "http-only", false, "Fetch pages over plain HTTP instead of a browser")
	flags.BoolVar(&visible, "no-headless", false, "Run browser in visible mode")
	flags.StringVar(&title, "title", "Inception", "Title to search for on the detail site")
	flags.StringVar(&detailURL, "url", "", "Detail page to probe directly, skipping the search")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func probeListing(out io.Writer, page utils.Page, cfg *types.Config) {
	if err := page.Navigate(cfg.ListingURL); err != nil {
		fmt.Fprintf(out, "Failed to load %s: %v\n", cfg.ListingURL, err)
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"locator", "matches", "first match"})
	for _, loc := range adapters.ListingStrategies {
		elements, err := page.FindAll(loc)
		switch {
		case err != nil:
			t.AppendRow(table.Row{loc.Expr, "error", err.Error()})
		case len(elements) == 0:
			t.AppendRow(table.Row{loc.Expr, 0, ""})
		default:
			text, _ := elements[0].Text()
			t.AppendRow(table.Row{loc.Expr, len(elements), strings.ReplaceAll(text, "\n", " | ")})
		}
	}
	t.Render()
}

func probeDetail(out io.Writer, page utils.Page, cfg *types.Config, logger types.Logger, title, detailURL string) error {
	rt := adapters.NewRottenTomatoesAdapter(page, cfg, logger)
	if detailURL == "" {
		found, err := rt.FindMovieURL(title)
		if err != nil {
			return fmt.Errorf("search for %q: %w", title, err)
		}
		detailURL = found
	}
	fmt.Fprintf(out, "Detail page: %s\n", detailURL)

	if err := page.Navigate(detailURL); err != nil {
		return err
	}

	chain := adapters.NewSelectorChain(page, logger)
	t := newTable(out)
	t.AppendHeader(table.Row{"field", "strategy", "value"})
	for _, field := range adapters.DetailFields {
		for _, s := range field.Strategies {
			value := chain.Extract([]adapters.Strategy{s})
			t.AppendRow(table.Row{field.Name, s.Name, value})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "value", WidthMax: 60}})
	t.Render()
	return nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
