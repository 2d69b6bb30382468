package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"rd-card-scraper/internal/app"
	"rd-card-scraper/internal/discovery"
)

type urlOutcome struct {
	URL    string
	Result string
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printScrapeStats(s *app.ScrapeStats) {
	t := newTable()
	t.AppendHeader(table.Row{"Discovered", "Scraped", "Skipped", "Errors"})
	t.AppendRow(table.Row{s.Discovered, s.Scraped, s.Skipped, s.Errors})
	t.Render()
}

func printUpdateStats(s *app.UpdateStats) {
	t := newTable()
	t.AppendHeader(table.Row{"Discovered", "New", "Updated", "Unchanged", "Errors"})
	t.AppendRow(table.Row{s.Discovered, s.New, s.Updated, s.Unchanged, s.Errors})
	t.Render()
}

func printURLOutcomes(outcomes []urlOutcome) {
	t := newTable()
	t.AppendHeader(table.Row{"URL", "Result"})
	for _, o := range outcomes {
		t.AppendRow(table.Row{o.URL, o.Result})
	}
	t.Render()
}

func printPosts(posts []discovery.Post) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Title", "URL", "Source"})
	for i, p := range posts {
		t.AppendRow(table.Row{i + 1, p.Title, p.URL, p.Source})
	}
	t.Render()
}

func printSummary(s *app.Summary) {
	t := newTable()
	t.AppendHeader(table.Row{"Set", "Title", "Cards", "Last scraped"})
	for _, set := range s.Sets {
		t.AppendRow(table.Row{set.SetID, set.Title, set.Cards, set.LastScraped})
	}
	t.AppendFooter(table.Row{"Total", s.TotalSets, s.TotalCards, ""})
	t.Render()
}
