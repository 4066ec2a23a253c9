package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/discovery"
	"github.com/necroscout/necroscout/pkg/scoring"
	"github.com/necroscout/necroscout/pkg/steam"
	"github.com/necroscout/necroscout/pkg/storage"
)

// searchCmd implements: necroscout search [terms...]
//
// Targeted discovery: instead of grinding through the whole catalog, query
// the store search for each primary keyword (or the given terms) and run the
// hits through the same scoring and persistence path. Much faster, much less
// complete.
var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search the store for keyword matches and score the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		minScore, _ := cmd.Flags().GetInt("min-score")
		if !cmd.Flags().Changed("min-score") {
			minScore = viper.GetInt("discovery.min_score")
		}
		maxPerTerm, _ := cmd.Flags().GetInt("max-per-term")

		terms := args
		if len(terms) == 0 {
			terms = configuredKeywords().Primary
		}

		db, err := storage.Open(viper.GetString("database.path"))
		if err != nil {
			return err
		}
		defer db.Close()

		tracked, err := db.TrackedIDs(cmd.Context())
		if err != nil {
			return err
		}

		ledger, err := discovery.OpenLedger(ledgerPath())
		if err != nil {
			return err
		}
		defer ledger.Close()

		processed, err := ledger.Load()
		if err != nil {
			return err
		}

		interval := time.Duration(viper.GetInt("discovery.request_interval_ms")) * time.Millisecond
		client := steam.NewClient(viper.GetString("steam.api_key"), interval)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Collect hits across terms, deduplicating by app id.
		seen := make(map[int64]struct{})
		var hits []steam.AppEntry
		for _, term := range terms {
			if ctx.Err() != nil {
				break
			}
			apps, err := client.SearchApps(ctx, term, maxPerTerm)
			if err != nil {
				utils.Log.Warnf("Search for %q failed: %v", term, err)
				continue
			}
			utils.Log.Infof("Search %q: %d hits", term, len(apps))
			for _, app := range apps {
				if _, ok := seen[app.AppID]; ok {
					continue
				}
				seen[app.AppID] = struct{}{}
				hits = append(hits, app)
			}
		}

		queue := discovery.BuildWorkQueue(hits, processed, tracked, discovery.DefaultSkipKeywords)
		if len(queue) == 0 {
			fmt.Println("Nothing new to evaluate.")
			return nil
		}
		utils.Log.Infof("Evaluating %d search hits", len(queue))

		scorer := scoring.NewScorer(configuredKeywords(), configuredWeights())
		writer := discovery.NewWriter(db, "keyword_search", minScore, viper.GetInt("discovery.batch_size"))

		res, err := discovery.Run(ctx, discovery.Config{
			Queue:         queue,
			Details:       client,
			Scorer:        scorer,
			Writer:        writer,
			Ledger:        ledger,
			ProgressEvery: viper.GetInt("discovery.progress_every"),
			Log:           utils.Log,
		})
		if err != nil {
			return err
		}

		printSummary(res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("min-score", 5, "Minimum score for an app to become a candidate")
	searchCmd.Flags().Int("max-per-term", 25, "Maximum store search hits per term")
}
