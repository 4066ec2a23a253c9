package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/steam"
)

// fetchCmd implements: necroscout fetch
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the full Steam app list into the local catalog cache",
	Long: `Enumerates the complete Steam catalog via the paginated IStoreService API
(requires steam.api_key in the config) and writes it to the local cache file.
If the API is unavailable it falls back to SteamSpy's much smaller snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := viper.GetString("steam.api_key")
		interval := time.Duration(viper.GetInt("discovery.request_interval_ms")) * time.Millisecond
		client := steam.NewClient(apiKey, interval)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		apps, err := client.FetchCatalog(ctx)
		if err != nil {
			if errors.Is(err, steam.ErrMissingAPIKey) {
				return fmt.Errorf("steam.api_key not set in config. Get one at https://steamcommunity.com/dev/apikey")
			}
			return err
		}

		cachePath := catalogCachePath()
		if err := steam.SaveCatalog(cachePath, apps); err != nil {
			return fmt.Errorf("writing catalog cache: %w", err)
		}

		utils.Log.Infof("Downloaded %d Steam apps", len(apps))
		utils.Log.Infof("Saved to %s", cachePath)
		fmt.Println("Run 'necroscout discover' to begin evaluation.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
