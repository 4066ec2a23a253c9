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

// discoverCmd implements: necroscout discover
//
// The pass is resumable: every terminal evaluation is recorded in the
// processed ledger, so an interrupted run (Ctrl+C included) continues where
// it left off.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Evaluate the cached catalog and store qualifying candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		minScore, _ := cmd.Flags().GetInt("min-score")
		if !cmd.Flags().Changed("min-score") {
			minScore = viper.GetInt("discovery.min_score")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if !cmd.Flags().Changed("batch-size") {
			batchSize = viper.GetInt("discovery.batch_size")
		}
		fetchTags, _ := cmd.Flags().GetBool("tags")

		// Setup failures abort before any entry is processed.
		catalog, err := steam.LoadCatalog(catalogCachePath())
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("catalog cache not found at %s. Run 'necroscout fetch' first", catalogCachePath())
			}
			return err
		}
		utils.Log.Infof("Loaded %d apps from catalog cache", len(catalog))

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
		utils.Log.Infof("Loaded %d already-processed app ids", len(processed))

		queue := discovery.BuildWorkQueue(catalog, processed, tracked, discovery.DefaultSkipKeywords)
		utils.Log.Infof("Work queue: %d apps (excluded %d)", len(queue), len(catalog)-len(queue))

		if limit > 0 && len(queue) > limit {
			queue = queue[:limit]
			utils.Log.Infof("Limited to %d apps", limit)
		}
		if len(queue) == 0 {
			fmt.Println("No apps left to evaluate.")
			return nil
		}

		interval := time.Duration(viper.GetInt("discovery.request_interval_ms")) * time.Millisecond
		client := steam.NewClient(viper.GetString("steam.api_key"), interval)
		scorer := scoring.NewScorer(configuredKeywords(), configuredWeights())
		writer := discovery.NewWriter(db, "auto_discovery", minScore, batchSize)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := discovery.Run(ctx, discovery.Config{
			Queue:         queue,
			Details:       client,
			Scorer:        scorer,
			Writer:        writer,
			Ledger:        ledger,
			FetchTags:     fetchTags,
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

func printSummary(res *discovery.Result) {
	status := "DISCOVERY COMPLETE"
	if res.Interrupted {
		status = "DISCOVERY INTERRUPTED"
	}

	fmt.Println()
	fmt.Println(status)
	fmt.Printf("  Duration:        %s\n", res.Elapsed.Round(time.Second))
	fmt.Printf("  Apps evaluated:  %d/%d\n", res.Processed, res.Total)
	fmt.Printf("  Candidates:      %d\n", res.Qualifying)
	fmt.Printf("  Persisted:       %d\n", res.Persisted)
	fmt.Printf("  Rate limited:    %d\n", res.RateLimited)
	fmt.Printf("  Errors:          %d\n", res.Errors)
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().Int("min-score", 5, "Minimum score for an app to become a candidate")
	discoverCmd.Flags().Int("limit", 0, "Evaluate at most this many apps (0 = no limit)")
	discoverCmd.Flags().Int("batch-size", 50, "Candidates buffered between database flushes")
	discoverCmd.Flags().Bool("tags", false, "Also fetch SteamSpy community tags before scoring (doubles request count)")
}
