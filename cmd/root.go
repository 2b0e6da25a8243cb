/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/enrich"
	"github.com/ademuri/artist-graph/internal/logging"
	"github.com/ademuri/artist-graph/internal/store"
)

var cfgFile string
var lastFmApiKey string
var lastFmSecret string
var lastFmUser string
var databasePath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "artist-graph",
	Short: "Builds an artist graph from your music library and compares tastes",
	Long: `Imports songs from exports, audio files or last.fm, builds a weighted
artist co-occurrence graph with inferred genres, and compares listening
profiles with each other.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(viper.GetBool("log_json"), viper.GetBool("verbose"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
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

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.artist-graph.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&lastFmApiKey, "api_key", "", "", "last.fm API key")
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api_key"))

	rootCmd.PersistentFlags().StringVarP(
		&lastFmSecret, "secret", "", "", "last.fm secret")
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))

	rootCmd.PersistentFlags().StringVarP(
		&lastFmUser, "user", "u", "", "library owner to act on")
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	rootCmd.PersistentFlags().StringVarP(
		&databasePath, "database", "d", "./artist-graph.db", "Path to the SQLite database")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().String("snapshot", "graph.json", "Path of the graph snapshot")
	viper.BindPFlag("snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))

	rootCmd.PersistentFlags().String("genre_table", "", "YAML, TOML or JSON artist genre table to use instead of the built-in one")
	viper.BindPFlag("genre_table", rootCmd.PersistentFlags().Lookup("genre_table"))

	rootCmd.PersistentFlags().String("format", formatTable, "Output format: table, yaml or json")
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))

	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Timeout for each last.fm request")
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.PersistentFlags().Bool("log_json", false, "Write logs as JSON")
	viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log_json"))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".artist-graph" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".artist-graph")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.PersistentFlags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

// requireFlags fails like cobra's required-flag check for keys that may
// come from either a flag or the config file.
func requireFlags(keys ...string) error {
	for _, key := range keys {
		if viper.GetString(key) == "" {
			return fmt.Errorf("required flag(s) %q not set", key)
		}
	}
	return nil
}

func openStore(dbPath string) (*store.Store, error) {
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// lastfmClient returns nil when no API key is configured, which turns the
// last.fm enrichment steps off.
func lastfmClient() *enrich.Client {
	if viper.GetString("api_key") == "" {
		return nil
	}
	cfg := enrich.DefaultConfig()
	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	api := enrich.NewLastfmAPI(viper.GetString("api_key"), viper.GetString("secret"))
	return enrich.NewClient(api, cfg)
}
