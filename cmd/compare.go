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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/similarity"
)

// Public profiles considered for discovery and leaderboards.
const candidatePool = 500

var compareCmd = &cobra.Command{
	Use:   "compare <profile id> <profile id>",
	Short: "Scores how similar two profiles' tastes are",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := compareProfiles(os.Stdout, viper.GetString("database"), viper.GetString("format"), args[0], args[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var discoverNumber int
var discoverCmd = &cobra.Command{
	Use:   "discover <profile id>",
	Short: "Finds the public profiles most similar to a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := discover(os.Stdout, viper.GetString("database"), viper.GetString("format"), args[0], discoverNumber)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var leaderboardNumber int
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <diverse|popular|unique|genre-<genre>>",
	Short: "Ranks public profiles",
	Long: `Boards: diverse (genre diversity), popular (library size), unique (least
similar to everyone else) and genre-<genre>, e.g. genre-drum-&-bass, for the
biggest fans of a genre.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := leaderboard(os.Stdout, viper.GetString("database"), viper.GetString("format"), args[0], leaderboardNumber)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(compareCmd, discoverCmd, leaderboardCmd)

	discoverCmd.Flags().IntVarP(&discoverNumber, "number", "n", 10, "number of results to return")
	leaderboardCmd.Flags().IntVarP(&leaderboardNumber, "number", "n", 10, "number of results to return")
}

func compareProfiles(out io.Writer, dbPath string, format string, idA string, idB string) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := db.GetProfile(idA)
	if err != nil {
		return err
	}
	b, err := db.GetProfile(idB)
	if err != nil {
		return err
	}

	res := similarity.Compare(a.Vector, b.Vector, similarity.DefaultOptions())
	return render(out, format, res, func() *Analysis {
		t := newAnalysis("Measure", "Score")
		t.add("Overall", percent(res.Overall))
		t.add("Artist overlap", decimal(res.ArtistOverlap))
		t.add("Genre similarity", decimal(res.GenreSimilarity))
		t.add("Genre cosine", decimal(res.Cosine))
		t.add("Diversity similarity", decimal(res.DiversitySimilarity))
		var shared []string
		for i, s := range res.SharedArtists {
			if i == 10 {
				break
			}
			shared = append(shared, s.Name)
		}
		t.summary = fmt.Sprintf("%s and %s share %d artists: %s", a.Name, b.Name, res.SharedCount, strings.Join(shared, ", "))
		return t
	})
}

func discover(out io.Writer, dbPath string, format string, id string, limit int) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	target, err := db.GetProfile(id)
	if err != nil {
		return err
	}
	candidates, err := db.ListPublicProfiles(candidatePool)
	if err != nil {
		return err
	}

	matches := similarity.Discover(target.Member(), loadMembers(candidates), similarity.DefaultOptions(), limit)
	return render(out, format, matches, func() *Analysis {
		a := newAnalysis("ID", "Name", "Similarity", "Shared artists", "Top shared")
		for _, m := range matches {
			a.add(m.ID, m.Name, percent(m.Overall), fmt.Sprint(m.SharedCount), strings.Join(m.TopShared, ", "))
		}
		a.summary = fmt.Sprintf("Profiles most similar to %s", target.Name)
		return a
	})
}

func leaderboard(out io.Writer, dbPath string, format string, kind string, limit int) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles, err := db.ListPublicProfiles(candidatePool)
	if err != nil {
		return err
	}

	board, err := similarity.Leaderboard(strings.ToLower(kind), loadMembers(profiles), similarity.DefaultOptions(), limit)
	if err != nil {
		return fmt.Errorf("%w (genre boards: %s)", err, strings.Join(genreBoards(), ", "))
	}
	return render(out, format, board, func() *Analysis {
		a := newAnalysis("Rank", "Name", "Score")
		for i, e := range board.Entries {
			a.add(fmt.Sprint(i+1), e.Name, fmt.Sprint(e.Score))
		}
		a.summary = board.Title
		return a
	})
}

func genreBoards() []string {
	var boards []string
	for _, label := range genre.Labels {
		if genre.IsFinal(label) {
			boards = append(boards, "genre-"+similarity.GenreSlug(label))
		}
	}
	return boards
}
