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
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/enrich"
)

type UpdateConfig struct {
	DbPath   string
	User     string
	After    string
	MaxPages int
	Force    bool
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Adds a user's last.fm scrobbles to their library",
	Long:  `Every scrobbled song is stored once in the local SQLite database.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireFlags("user", "api_key", "secret")
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := UpdateConfig{
			DbPath:   viper.GetString("database"),
			User:     viper.GetString("user"),
			After:    viper.GetString("after"),
			MaxPages: viper.GetInt("pages"),
			Force:    viper.GetBool("force"),
		}

		err := updateDatabase(context.Background(), os.Stdout, config, lastfmClient())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	var afterString string
	updateCmd.Flags().StringVar(&afterString, "after", "", "Only get listening data after this date, in yyyy, yyyy-mm or yyyy-mm-dd format")
	viper.BindPFlag("after", updateCmd.Flags().Lookup("after"))

	var pages int
	updateCmd.Flags().IntVar(&pages, "pages", 0, "Maximum number of pages of 200 scrobbles to fetch (0 for all)")
	viper.BindPFlag("pages", updateCmd.Flags().Lookup("pages"))

	var force bool
	updateCmd.Flags().BoolVarP(&force, "force", "f", false, "Fetch even if the library was updated in the past 24 hours")
	viper.BindPFlag("force", updateCmd.Flags().Lookup("force"))
}

func updateDatabase(ctx context.Context, out io.Writer, config UpdateConfig, src enrich.RecentSource) error {
	after, err := parseDate(config.After)
	if err != nil {
		return fmt.Errorf("--after: %w", err)
	}

	user := strings.ToLower(config.User)
	db, err := openStore(config.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	lastUpdated, err := db.GetLastUpdated(user)
	if err != nil {
		return err
	}
	now := time.Now()
	if !lastUpdated.IsZero() && now.Sub(lastUpdated).Hours() < 24 && !config.Force {
		fmt.Fprintf(out, "User data was already updated in the past 24 hours\n")
		return nil
	}

	obs, err := enrich.FetchRecent(ctx, src, user, enrich.RecentOptions{After: after, MaxPages: config.MaxPages})
	if err != nil {
		return err
	}

	added, err := db.AddObservations(user, obs)
	if err != nil {
		return fmt.Errorf("saving scrobbles: %w", err)
	}
	if err := db.SetLastUpdated(user, now); err != nil {
		return err
	}

	fmt.Fprintf(out, "Added %d new songs from %d scrobbled songs for %q\n", added, len(obs), user)
	return nil
}
