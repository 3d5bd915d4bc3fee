package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/ranking"
	"github.com/lukman83/shopgenie/internal/ui"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [item]",
	Short: "Search every platform for the same item",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().String("format", "table", "Output format: table, json")
	rankingFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	if opts.Method == "" {
		opts.Method = ranking.Method(cfg.RankMethod)
	}
	if opts.TopResults == 0 {
		opts.TopResults = cfg.TopResultsCount
	}

	item := strings.Join(args, " ")
	format, _ := cmd.Flags().GetString("format")

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching %d platforms for %q...", len(a.registry.List()), item))
	ctx := platform.WithProgress(context.Background(), spin.Update)
	results := a.registry.SearchAll(ctx, item, cfg.MaxSearchResults)
	spin.Stop()

	for i, r := range results {
		a.tracker.Record(string(r.Platform), !r.Failed(), len(r.Products))
		products := r.Products
		if !opts.Filter.IsZero() {
			products = opts.Filter.Apply(products)
		}
		results[i].Products = ranking.Rank(products, opts.Method, opts.TopResults)
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), compareJSON(results))
	}
	printCompareTable(cmd.OutOrStdout(), a.registry.DisplayName, results, opts.TopResults)
	return nil
}

type compareEntry struct {
	Platform platform.ID      `json:"platform"`
	Products []models.Product `json:"products"`
	Error    string           `json:"error,omitempty"`
}

func compareJSON(results []platform.Result) []compareEntry {
	out := make([]compareEntry, 0, len(results))
	for _, r := range results {
		e := compareEntry{Platform: r.Platform, Products: r.Products}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out = append(out, e)
	}
	return out
}
