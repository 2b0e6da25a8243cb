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
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/propagate"
	"github.com/ademuri/artist-graph/internal/similarity"
	"github.com/ademuri/artist-graph/internal/source"
	"github.com/ademuri/artist-graph/internal/store"
)

type ProfileConfig struct {
	DbPath     string
	User       string
	GenreTable string
	Name       string
	Public     bool
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manages taste profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [path...]",
	Short: "Creates a profile from export files, or from a user's library",
	Long: `With paths, reads songs from them the way import does. Without paths,
uses the library of --user.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return requireFlags("user")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := ProfileConfig{
			DbPath:     viper.GetString("database"),
			User:       viper.GetString("user"),
			GenreTable: viper.GetString("genre_table"),
			Name:       viper.GetString("name"),
			Public:     viper.GetBool("public"),
		}
		err := createProfile(os.Stdout, config, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <profile id>",
	Short: "Shows a profile's taste summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := showProfile(os.Stdout, viper.GetString("database"), viper.GetString("format"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var profileListNumber int
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists public profiles, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		err := listProfiles(os.Stdout, viper.GetString("database"), viper.GetString("format"), profileListNumber)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile id>",
	Short: "Deletes a profile and removes it from every group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteProfile(os.Stdout, viper.GetString("database"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd, profileShowCmd, profileListCmd, profileDeleteCmd)

	var name string
	profileCreateCmd.Flags().StringVar(&name, "name", "", "Display name of the profile")
	viper.BindPFlag("name", profileCreateCmd.Flags().Lookup("name"))

	var public bool
	profileCreateCmd.Flags().BoolVar(&public, "public", true, "List the profile for discovery and leaderboards")
	viper.BindPFlag("public", profileCreateCmd.Flags().Lookup("public"))

	profileListCmd.Flags().IntVarP(&profileListNumber, "number", "n", 50, "number of results to return")
}

// graphResolver answers with the genres of a built graph, keyed by artist
// name.
type graphResolver map[string]string

func (r graphResolver) Resolve(name string) string {
	if label, ok := r[name]; ok && label != "" {
		return label
	}
	return genre.Other
}

// tasteVector resolves genres the way build-graph does, without last.fm,
// so artists the table misses can still be inferred from their neighbours.
func tasteVector(obs []graph.Observation, lookup *genre.Lookup) similarity.TasteVector {
	g, _ := (&graph.Builder{Resolver: lookup}).Build(obs)
	g, _ = propagate.Run(g, propagate.DefaultOptions())

	r := make(graphResolver, len(g.Nodes))
	for _, n := range g.Nodes {
		r[n.Name] = n.Genre
	}
	return similarity.NewTasteVector(obs, r)
}

func createProfile(out io.Writer, config ProfileConfig, paths []string) error {
	db, err := openStore(config.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var obs []graph.Observation
	if len(paths) == 0 {
		obs, err = db.GetObservations(strings.ToLower(config.User))
		if err != nil {
			return err
		}
	}
	for _, path := range paths {
		read, err := source.Open(path)
		if err != nil {
			return err
		}
		obs = append(obs, read...)
	}
	if len(obs) == 0 {
		return fmt.Errorf("creating profile: %w", source.ErrNoData)
	}

	lookup, err := loadLookup(config.GenreTable)
	if err != nil {
		return err
	}
	v := tasteVector(obs, lookup)

	id, err := db.CreateProfile(config.Name, config.Public, v, obs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created profile %s from %d songs by %d artists\n", id, v.TotalSongs, v.UniqueArtists)
	return nil
}

func showProfile(out io.Writer, dbPath string, format string, id string) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := db.GetProfile(id)
	if err != nil {
		return err
	}

	return render(out, format, p, func() *Analysis {
		a := newAnalysis("Genre", "Share")
		for _, label := range p.Vector.TopGenres {
			a.add(label, percent(100*p.Vector.GenreWeights[label]))
		}
		a.summary = fmt.Sprintf("%s (%s): %d songs, %d artists, diversity %s",
			p.Name, p.ID, p.Stats.SongCount, p.Stats.ArtistCount, decimal(p.Stats.DiversityScore))
		return a
	})
}

func listProfiles(out io.Writer, dbPath string, format string, limit int) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles, err := db.ListPublicProfiles(limit)
	if err != nil {
		return err
	}

	return render(out, format, profiles, func() *Analysis {
		a := newAnalysis("ID", "Name", "Songs", "Artists", "Top genres")
		for _, p := range profiles {
			a.add(p.ID, p.Name, fmt.Sprint(p.Stats.SongCount), fmt.Sprint(p.Stats.ArtistCount), strings.Join(p.Stats.TopGenres, ", "))
		}
		a.summary = fmt.Sprintf("Found %d public profiles", len(profiles))
		return a
	})
}

func deleteProfile(out io.Writer, dbPath string, id string) error {
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteProfile(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted profile %s\n", id)
	return nil
}

// loadMembers turns stored profiles into similarity members.
func loadMembers(profiles []store.Profile) []similarity.Member {
	members := make([]similarity.Member, len(profiles))
	for i, p := range profiles {
		members[i] = p.Member()
	}
	return members
}
