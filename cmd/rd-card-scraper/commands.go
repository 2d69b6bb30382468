package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rd-card-scraper/internal/app"
)

var scrapeAllCmd = &cobra.Command{
	Use:   "scrape-all",
	Short: "Discover and scrape every card list post",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := app.GracefulShutdown(rt.logger, timeout)
		defer cancel()

		stats, err := rt.orch.ScrapeAll(ctx)
		if stats != nil {
			printScrapeStats(stats)
		}
		return err
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Scrape only new or changed posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := app.GracefulShutdown(rt.logger, timeout)
		defer cancel()

		stats, err := rt.orch.Update(ctx)
		if stats != nil {
			printUpdateStats(stats)
		}
		return err
	},
}

var scrapeURLCmd = &cobra.Command{
	Use:   "scrape-url <url>...",
	Short: "Scrape specific posts by URL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := app.GracefulShutdown(rt.logger, timeout)
		defer cancel()

		outcomes := make([]urlOutcome, 0, len(args))
		var firstErr error
		for _, u := range args {
			outcome, err := rt.orch.ScrapeURL(ctx, u)
			if err != nil {
				rt.logger.Error("Error scraping post", "url", u, "error", err.Error())
				outcomes = append(outcomes, urlOutcome{URL: u, Result: "error"})
				if firstErr == nil {
					firstErr = err
				}
				if ctx.Err() != nil {
					break
				}
				continue
			}
			outcomes = append(outcomes, urlOutcome{URL: u, Result: string(outcome)})
		}
		printURLOutcomes(outcomes)
		return firstErr
	},
}

var (
	noVerify bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List card list posts without scraping them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := app.GracefulShutdown(rt.logger, timeout)
		defer cancel()

		verify := rt.cfg.Discovery.VerifyCandidates && !noVerify
		posts, stats, err := rt.orch.Discover(ctx, verify)
		if err != nil {
			return err
		}
		printPosts(posts)
		fmt.Printf("pages=%d seen=%d accepted=%d rejected=%d candidates=%d verified=%d (%s)\n",
			stats.Pages, stats.Seen, stats.Accepted, stats.Rejected, stats.Candidates, stats.Verified, stats.StoppedReason)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List new or changed posts without scraping them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := app.GracefulShutdown(rt.logger, timeout)
		defer cancel()

		urls, err := rt.orch.CheckUpdates(ctx)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			fmt.Println("Everything is up to date.")
			return nil
		}
		fmt.Printf("%d post(s) need updating:\n", len(urls))
		for _, u := range urls {
			fmt.Println("  " + u)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show scraped sets from the incremental state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		summary, err := rt.orch.Summary(cmd.Context())
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&noVerify, "no-verify", false, "accept URL candidates without fetching them")
}
