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
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/artist-graph/internal/enrich"
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
	"github.com/ademuri/artist-graph/internal/propagate"
	"github.com/ademuri/artist-graph/internal/source"
)

type BuildConfig struct {
	DbPath         string
	User           string
	Snapshot       string
	Transport      string
	GenreTable     string
	SongLimit      int
	Passes         int
	MinConnections int
	Related        int
	TagInterval    time.Duration
}

// Enrichers are the optional last.fm steps of a build. Nil fields are
// skipped.
type Enrichers struct {
	Tags    enrich.TagSource
	Related graph.RelatedSource
}

var buildGraphCmd = &cobra.Command{
	Use:   "build-graph",
	Short: "Builds the artist graph of a user's library",
	Long: `Groups the library by artist, links artists that share songs, assigns
genres from the genre table, last.fm tags and the previous snapshot, infers
the rest from neighbours, and writes the result as a snapshot.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireFlags("user")
	},
	Run: func(cmd *cobra.Command, args []string) {
		intervalStr := viper.GetString("tag-update-interval")
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			fmt.Printf("Invalid tag-update-interval: %v. Using default 1 year.\n", err)
			interval = enrich.DefaultTagInterval
		}

		config := BuildConfig{
			DbPath:         viper.GetString("database"),
			User:           viper.GetString("user"),
			Snapshot:       viper.GetString("snapshot"),
			Transport:      viper.GetString("transport"),
			GenreTable:     viper.GetString("genre_table"),
			SongLimit:      viper.GetInt("song_limit"),
			Passes:         viper.GetInt("passes"),
			MinConnections: viper.GetInt("min_connections"),
			Related:        viper.GetInt("related"),
			TagInterval:    interval,
		}

		var enrichers Enrichers
		if client := lastfmClient(); client != nil && !viper.GetBool("offline") {
			enrichers = Enrichers{Tags: client, Related: client}
		}

		err = buildGraph(context.Background(), os.Stdout, config, enrichers)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(buildGraphCmd)

	buildGraphCmd.Flags().String("transport", "", "Also write the graph for the visualisation, with capped song lists, to this path")
	viper.BindPFlag("transport", buildGraphCmd.Flags().Lookup("transport"))

	buildGraphCmd.Flags().Int("song_limit", graph.DefaultSongLimit, "Songs per artist in the transport file")
	viper.BindPFlag("song_limit", buildGraphCmd.Flags().Lookup("song_limit"))

	buildGraphCmd.Flags().Int("passes", 0, "Genre inference passes (0 for the default)")
	viper.BindPFlag("passes", buildGraphCmd.Flags().Lookup("passes"))

	buildGraphCmd.Flags().Int("min_connections", 0, "Neighbours that must agree before a genre is inferred (0 for the default)")
	viper.BindPFlag("min_connections", buildGraphCmd.Flags().Lookup("min_connections"))

	buildGraphCmd.Flags().Int("related", 0, "Related artists to add per library artist from last.fm")
	viper.BindPFlag("related", buildGraphCmd.Flags().Lookup("related"))

	buildGraphCmd.Flags().String("tag-update-interval", "8760h", "Time duration after which to re-fetch tags (e.g., 24h)")
	viper.BindPFlag("tag-update-interval", buildGraphCmd.Flags().Lookup("tag-update-interval"))

	buildGraphCmd.Flags().Bool("offline", false, "Do not call last.fm, even if an API key is configured")
	viper.BindPFlag("offline", buildGraphCmd.Flags().Lookup("offline"))
}

func buildGraph(ctx context.Context, out io.Writer, config BuildConfig, enrichers Enrichers) error {
	log := logging.Component("build")

	user := strings.ToLower(config.User)
	db, err := openStore(config.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	obs, err := db.GetObservations(user)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("library of %q: %w - run import or update first", user, source.ErrNoData)
	}

	lookup, err := loadLookup(config.GenreTable)
	if err != nil {
		return err
	}

	g, built := (&graph.Builder{Resolver: lookup}).Build(obs)
	log.Infow("graph built", "songs", built.Songs, "skipped", built.Skipped, "artists", len(g.Nodes))

	tagger := &enrich.Tagger{Source: enrichers.Tags, Cache: db, Interval: config.TagInterval}
	g, tagged := tagger.Resolve(ctx, g)

	var related graph.RelatedReport
	if enrichers.Related != nil && config.Related > 0 {
		g, related = g.AddRelated(ctx, enrichers.Related, config.Related, lookup)
	}

	preserved := 0
	prev, err := graph.LoadSnapshot(config.Snapshot)
	switch {
	case errors.Is(err, graph.ErrNoSnapshot):
	case err != nil:
		log.Warnw("ignoring previous snapshot", "path", config.Snapshot, "error", err)
	default:
		var perr error
		g, preserved, perr = g.PreserveGenres(prev.Graph)
		if perr != nil {
			log.Warnw("not reusing previous genres", "error", perr)
		}
	}

	opts := propagate.DefaultOptions()
	if config.Passes > 0 {
		opts.Passes = config.Passes
	}
	if config.MinConnections > 0 {
		opts.MinConnections = config.MinConnections
	}
	g, inferred := propagate.Run(g, opts)

	if err := graph.SaveSnapshot(config.Snapshot, g); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if config.Transport != "" {
		if err := graph.WriteJSON(config.Transport, g.Transport(config.SongLimit)); err != nil {
			return err
		}
	}

	stats := g.ComputeStats()
	a := newAnalysis("Step", "Result")
	a.add("Songs", fmt.Sprint(built.Songs))
	a.add("Skipped records", fmt.Sprint(built.Skipped))
	a.add("Artists", fmt.Sprint(stats.TotalArtists))
	a.add("Connections", fmt.Sprint(stats.TotalConnections))
	a.add("Related artists added", fmt.Sprint(related.NodesAdded))
	a.add("Genres from tags", fmt.Sprint(tagged.Assigned))
	a.add("Genres kept from previous snapshot", fmt.Sprint(preserved))
	for i, n := range inferred.Promoted {
		a.add(fmt.Sprintf("Genres inferred in pass %d", i+1), fmt.Sprint(n))
	}
	a.add("Fallback genres", fmt.Sprint(inferred.FallbackAssigned))
	a.add("Still unresolved", fmt.Sprint(inferred.Remaining))
	a.summary = fmt.Sprintf("Wrote %s", config.Snapshot)
	fmt.Fprint(out, a.String())

	fmt.Fprint(out, genreCountTable(g).String())
	return nil
}

// genreCountTable lists genres by node count, largest first.
func genreCountTable(g graph.Graph) *Analysis {
	counts := g.GenreCounts()
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	a := newAnalysis("Genre", "Artists")
	for _, l := range labels {
		a.add(l, fmt.Sprint(counts[l]))
	}
	return a
}
