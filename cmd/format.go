package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/status"
)

const titleWidth = 60

// printReply renders a pipeline reply in the requested format.
func printReply(w io.Writer, reply assistant.Reply, format string) error {
	switch format {
	case "json":
		return writeJSON(w, reply)
	case "table":
		if !reply.HasProducts() {
			fmt.Fprintln(w, reply.Message)
			return nil
		}
		printProductsTable(w, reply.Products)
	default:
		if !reply.HasProducts() {
			fmt.Fprintln(w, reply.Message)
			return nil
		}
		fmt.Fprintf(w, "Top %d results for %q on %s:\n\n", len(reply.Products), reply.Query, reply.PlatformName)
		printProductCards(w, reply.Products)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printProductCards prints products in a human-friendly card layout.
func printProductCards(w io.Writer, products []models.Product) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s\n", i+1, p.Title)

		line := "    Price: " + p.Price
		if p.Rating > 0 {
			line += fmt.Sprintf("  |  %s %.1f", stars(p.Rating), p.Rating)
		}
		if p.Sales > 0 {
			line += "  |  " + formatCount(p.Sales) + " sold/reviews"
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "    %s\n", p.URL)
	}
}

// printProductsTable prints products as a bordered table.
func printProductsTable(w io.Writer, products []models.Product) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Title", "Price", "Rating", "Sales", "Platform"})
	for i, p := range products {
		t.AppendRow(table.Row{i + 1, models.Truncate(p.Title, titleWidth), p.Price, formatRating(p.Rating), formatCount(p.Sales), p.Platform})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// printCompareTable prints one row per product across every platform,
// with failures listed under the table.
func printCompareTable(w io.Writer, names func(string) string, results []platform.Result, perPlatform int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Platform", "Title", "Price", "Rating", "Sales"})

	var notes []string
	for _, r := range results {
		name := names(string(r.Platform))
		switch {
		case r.Failed():
			notes = append(notes, fmt.Sprintf("%s: %v", name, r.Err))
			continue
		case len(r.Products) == 0:
			notes = append(notes, name+": no results")
			continue
		}
		for i, p := range r.Products {
			if i == perPlatform {
				break
			}
			t.AppendRow(table.Row{name, models.Truncate(p.Title, titleWidth), p.Price, formatRating(p.Rating), formatCount(p.Sales)})
		}
		t.AppendSeparator()
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	for _, n := range notes {
		fmt.Fprintln(w, n)
	}
}

// printPlatformsTable lists platforms with aliases and their last status.
func printPlatformsTable(w io.Writer, reg *platform.Registry, snap map[string]status.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Platform", "ID", "Aliases", "Status", "Checked"})
	for _, id := range reg.List() {
		state, checked := "-", "-"
		if e, ok := snap[string(id)]; ok {
			state = string(e.State)
			checked = e.CheckedAt.Format("15:04:05")
		}
		t.AppendRow(table.Row{reg.DisplayName(string(id)), id, strings.Join(reg.Aliases(id), ", "), state, checked})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// stars renders a 0-5 rating as five characters, rounding to the nearest
// whole star.
func stars(rating float64) string {
	n := int(rating + 0.5)
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func formatRating(r float64) string {
	if r <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", r)
}

// formatCount abbreviates large counts: 950, 12.5K, 1.2M.
func formatCount(n int) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1_000_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/1_000_000), ".0") + "M"
	case n >= 10_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/1_000), ".0") + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}
