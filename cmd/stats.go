package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/necroscout/necroscout/pkg/discovery"
	"github.com/necroscout/necroscout/pkg/steam"
	"github.com/necroscout/necroscout/pkg/storage"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints discovery progress and database statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := discovery.OpenLedger(ledgerPath())
		if err != nil {
			return err
		}
		defer ledger.Close()

		processed, err := ledger.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "Processed app ids\t%d\t\n", len(processed))

		catalog, err := steam.LoadCatalog(catalogCachePath())
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(w, "Catalog\tnot downloaded (run 'necroscout fetch')\t")
			} else {
				return err
			}
		} else {
			remaining := len(catalog) - len(processed)
			if remaining < 0 {
				remaining = 0
			}
			fmt.Fprintf(w, "Catalog size\t%d\t\n", len(catalog))
			fmt.Fprintf(w, "Remaining\t%d\t\n", remaining)
			if len(catalog) > 0 {
				fmt.Fprintf(w, "Progress\t%.1f%%\t\n", float64(len(processed))/float64(len(catalog))*100)
			}
		}

		db, err := storage.Open(viper.GetString("database.path"))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "Tracked games\t%d\t\n", stats.TrackedGames)
		fmt.Fprintf(w, "Candidates\t%d\t\n", stats.TotalCandidates)
		fmt.Fprintf(w, "Pending review\t%d\t\n", stats.PendingCandidates)
		fmt.Fprintf(w, "From auto-discovery\t%d\t\n", stats.AutoDiscovered)

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
