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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/source"
)

var importCmd = &cobra.Command{
	Use:   "import <path...>",
	Short: "Adds songs from exports or audio files to a user's library",
	Long: `Accepts takeout folders or zip archives, playlist CSVs, JSON exports,
pasted playlist text (.txt) and directories or files of tagged audio.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireFlags("user")
	},
	Run: func(cmd *cobra.Command, args []string) {
		err := importFiles(os.Stdout, viper.GetString("database"), viper.GetString("user"), args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importFiles(out io.Writer, dbPath string, user string, paths []string) error {
	user = strings.ToLower(user)
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	a := newAnalysis("Source", "Songs read", "Songs added")
	total := 0
	for _, path := range paths {
		obs, err := source.Open(path)
		if errors.Is(err, source.ErrNoData) {
			a.add(path, "no music data found", "0")
			continue
		}
		if err != nil {
			return err
		}
		added, err := db.AddObservations(user, obs)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		total += added
		a.add(path, fmt.Sprint(len(obs)), fmt.Sprint(added))
	}

	a.summary = fmt.Sprintf("Added %d songs to the library of %q", total, user)
	fmt.Fprint(out, a.String())
	return nil
}
