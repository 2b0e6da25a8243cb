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

	"github.com/ademuri/artist-graph/internal/similarity"
	"github.com/ademuri/artist-graph/internal/store"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manages comparison groups of profiles",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Creates an empty group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGroupAction(func(db *store.Store) error {
			g, err := db.CreateGroup(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created group %s (%s)\n", g.Name, g.ID)
			return nil
		})
	},
}

var groupJoinCmd = &cobra.Command{
	Use:   "join <group id> <profile id>",
	Short: "Adds a profile to a group",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runGroupAction(func(db *store.Store) error {
			g, err := db.JoinGroup(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Group %s now has %d members\n", g.Name, len(g.Members))
			return nil
		})
	},
}

var groupLeaveCmd = &cobra.Command{
	Use:   "leave <group id> <profile id>",
	Short: "Removes a profile from a group",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runGroupAction(func(db *store.Store) error {
			return db.LeaveGroup(args[0], args[1])
		})
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show <group id>",
	Short: "Lists a group's members",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGroupAction(func(db *store.Store) error {
			return showGroup(os.Stdout, db, viper.GetString("format"), args[0])
		})
	},
}

var groupResultsCmd = &cobra.Command{
	Use:   "results <group id>",
	Short: "Compares every pair of profiles in a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGroupAction(func(db *store.Store) error {
			return groupResults(os.Stdout, db, viper.GetString("format"), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupCreateCmd, groupJoinCmd, groupLeaveCmd, groupShowCmd, groupResultsCmd)
}

func runGroupAction(action func(db *store.Store) error) {
	db, err := openStore(viper.GetString("database"))
	if err == nil {
		err = action(db)
		db.Close()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func showGroup(out io.Writer, db *store.Store, format string, id string) error {
	g, err := db.GetGroup(id)
	if err != nil {
		return err
	}
	profiles, err := db.GroupProfiles(id)
	if err != nil {
		return err
	}

	return render(out, format, g, func() *Analysis {
		a := newAnalysis("ID", "Name", "Songs", "Top genres")
		for _, p := range profiles {
			a.add(p.ID, p.Name, fmt.Sprint(p.Stats.SongCount), strings.Join(p.Stats.TopGenres, ", "))
		}
		a.summary = fmt.Sprintf("Group %s has %d members", g.Name, len(g.Members))
		return a
	})
}

// groupView is the serialised form of a group comparison.
type groupView struct {
	Group   store.Group            `json:"group" yaml:"group"`
	Members []string               `json:"members" yaml:"members"`
	Result  similarity.GroupResult `json:"result" yaml:"result"`
}

func groupResults(out io.Writer, db *store.Store, format string, id string) error {
	g, err := db.GetGroup(id)
	if err != nil {
		return err
	}
	profiles, err := db.GroupProfiles(id)
	if err != nil {
		return err
	}

	res, err := similarity.CompareGroup(loadMembers(profiles), similarity.DefaultOptions())
	if err != nil {
		return fmt.Errorf("group %s: %w", g.Name, err)
	}

	names := make(map[string]string, len(profiles))
	view := groupView{Group: g, Result: res}
	for _, p := range profiles {
		names[p.ID] = p.Name
		view.Members = append(view.Members, p.Name)
	}

	return render(out, format, view, func() *Analysis {
		a := newAnalysis("Profile A", "Profile B", "Similarity")
		for _, pair := range res.Pairs {
			a.add(names[pair.A], names[pair.B], percent(pair.Overall))
		}
		a.summary = fmt.Sprintf("Average %s, most similar %s & %s, least similar %s & %s, group diversity %s",
			percent(res.Average),
			names[res.MostSimilar.A], names[res.MostSimilar.B],
			names[res.LeastSimilar.A], names[res.LeastSimilar.B],
			percent(res.GroupDiversity))
		return a
	})
}
