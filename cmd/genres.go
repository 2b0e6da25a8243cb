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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
)

var genresCmd = &cobra.Command{
	Use:   "genres [artist...]",
	Short: "Shows which genre each artist resolves to",
	Long: `With artist names, shows the genre the table and keyword patterns assign
and which matching stage produced it. Without arguments, counts artists per
genre in the current snapshot.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		if len(args) == 0 {
			err = printSnapshotGenres(os.Stdout, viper.GetString("snapshot"))
		} else {
			err = explainGenres(os.Stdout, viper.GetString("genre_table"), args)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(genresCmd)
}

// loadLookup uses the genre table at path, or the built-in one when path is
// empty.
func loadLookup(path string) (*genre.Lookup, error) {
	if path == "" {
		return genre.NewDefaultLookup(), nil
	}
	table, err := genre.LoadTable(path)
	if err != nil {
		return nil, err
	}
	return genre.NewLookup(table, nil), nil
}

func explainGenres(out io.Writer, tablePath string, artists []string) error {
	lookup, err := loadLookup(tablePath)
	if err != nil {
		return err
	}

	a := newAnalysis("Artist", "Genre", "Matched by")
	resolved := 0
	for _, artist := range artists {
		label, stage := lookup.Explain(artist)
		if stage == genre.StageNone {
			label = genre.Other
		} else {
			resolved++
		}
		a.add(artist, label, stage.String())
	}
	a.summary = fmt.Sprintf("Resolved %d of %d artists", resolved, len(artists))
	fmt.Fprint(out, a.String())
	return nil
}

func printSnapshotGenres(out io.Writer, path string) error {
	snap, err := graph.LoadSnapshot(path)
	if err != nil {
		return fmt.Errorf("%w - run build-graph first", err)
	}
	a := genreCountTable(snap.Graph)
	a.summary = fmt.Sprintf("%d artists in snapshot generated %s", len(snap.Nodes), snap.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprint(out, a.String())
	return nil
}
