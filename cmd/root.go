package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/scoring"
)

var cfgFile string

const (
	LOGO = `
                                                 _
  _ __   ___  ___ _ __ ___  ___  ___ ___  _   _| |_
 | '_ \ / _ \/ __| '__/ _ \/ __|/ __/ _ \| | | | __|
 | | | |  __/ (__| | | (_) \__ \ (_| (_) | |_| | |_
 |_| |_|\___|\___|_|  \___/|___/\___\___/ \__,_|\__|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "necroscout",
	Short: "Discover necromancy games hiding in the Steam catalog.",
	Long: LOGO + `necroscout crawls the Steam catalog, scores every game against a tiered
necromancy keyword heuristic, and stores promising candidates in a local
database for manual review.

Runs are resumable: interrupt a discovery pass at any time and the next run
picks up exactly where it left off.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.necroscout.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".necroscout")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.necroscout.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	home, _ := homedir.Dir()
	dataDir := filepath.Join(home, ".necroscout")

	// Set default values for all keys
	viper.SetDefault("steam.api_key", "")
	viper.SetDefault("database.path", filepath.Join(dataDir, "necroscout.sqlite"))
	viper.SetDefault("cache.dir", filepath.Join(dataDir, "cache"))
	viper.SetDefault("discovery.min_score", 5)
	viper.SetDefault("discovery.batch_size", 50)
	viper.SetDefault("discovery.request_interval_ms", 1500)
	viper.SetDefault("discovery.progress_every", 10)

	// The keyword strategy and weights are tuning values, so they live in
	// config rather than code.
	defaults := scoring.DefaultKeywords()
	viper.SetDefault("scoring.primary_keywords", defaults.Primary)
	viper.SetDefault("scoring.secondary_keywords", defaults.Secondary)
	viper.SetDefault("scoring.genres", defaults.Genres)
	weights := scoring.DefaultWeights()
	viper.SetDefault("scoring.weights.primary_name", weights.PrimaryName)
	viper.SetDefault("scoring.weights.primary_desc", weights.PrimaryDesc)
	viper.SetDefault("scoring.weights.secondary_name", weights.SecondaryName)
	viper.SetDefault("scoring.weights.secondary_desc", weights.SecondaryDesc)
	viper.SetDefault("scoring.weights.genre_bonus", weights.GenreBonus)

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func catalogCachePath() string {
	return filepath.Join(viper.GetString("cache.dir"), "steam_applist.json")
}

func ledgerPath() string {
	return filepath.Join(viper.GetString("cache.dir"), "processed_appids.txt")
}

func configuredKeywords() scoring.Keywords {
	return scoring.Keywords{
		Primary:   viper.GetStringSlice("scoring.primary_keywords"),
		Secondary: viper.GetStringSlice("scoring.secondary_keywords"),
		Genres:    viper.GetStringSlice("scoring.genres"),
	}
}

func configuredWeights() scoring.Weights {
	return scoring.Weights{
		PrimaryName:   viper.GetInt("scoring.weights.primary_name"),
		PrimaryDesc:   viper.GetInt("scoring.weights.primary_desc"),
		SecondaryName: viper.GetInt("scoring.weights.secondary_name"),
		SecondaryDesc: viper.GetInt("scoring.weights.secondary_desc"),
		GenreBonus:    viper.GetInt("scoring.weights.genre_bonus"),
	}
}
