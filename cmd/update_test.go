package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ademuri/artist-graph/internal/enrich"
	"github.com/ademuri/artist-graph/internal/graph"
)

func TestUpdateCommand(t *testing.T) {
	if updateCmd == nil {
		t.Error("updateCmd is nil")
	}
	if updateCmd.Use != "update" {
		t.Errorf("expected use 'update', got %s", updateCmd.Use)
	}
}

type fakeRecent struct {
	pages [][]graph.Observation
	calls int
}

func (f *fakeRecent) RecentTracks(ctx context.Context, user string, page int) (enrich.TrackPage, error) {
	f.calls++
	if page > len(f.pages) {
		return enrich.TrackPage{}, errors.New("no such page")
	}
	return enrich.TrackPage{Tracks: f.pages[page-1], Oldest: time.Now(), TotalPages: len(f.pages)}, nil
}

func TestUpdateDatabase(t *testing.T) {
	config := UpdateConfig{DbPath: filepath.Join(t.TempDir(), "test.db"), User: "TestUser"}
	src := &fakeRecent{pages: [][]graph.Observation{
		{
			{Title: "Rush Over Me", Artist: "Seven Lions"},
			{Title: "Lonely", Artist: "Illenium"},
		},
		{
			{Title: "Rush Over Me", Artist: "Seven Lions"},
			{Title: "God's Plan", Artist: "Drake"},
		},
	}}

	var out bytes.Buffer
	if err := updateDatabase(context.Background(), &out, config, src); err != nil {
		t.Fatalf("updateDatabase: %v", err)
	}
	if got := out.String(); !strings.Contains(got, `Added 3 new songs from 3 scrobbled songs for "testuser"`) {
		t.Errorf("unexpected output: %q", got)
	}
	if src.calls != 2 {
		t.Errorf("fetched %d pages, want 2", src.calls)
	}

	out.Reset()
	if err := updateDatabase(context.Background(), &out, config, src); err != nil {
		t.Fatalf("updateDatabase (repeat): %v", err)
	}
	if !strings.Contains(out.String(), "already updated") {
		t.Errorf("second update should be skipped: %q", out.String())
	}
	if src.calls != 2 {
		t.Errorf("skipped update still fetched pages")
	}

	out.Reset()
	config.Force = true
	if err := updateDatabase(context.Background(), &out, config, src); err != nil {
		t.Fatalf("updateDatabase (forced): %v", err)
	}
	if !strings.Contains(out.String(), "Added 0 new songs") {
		t.Errorf("unexpected forced output: %q", out.String())
	}
}

func TestUpdateDatabaseBadDate(t *testing.T) {
	config := UpdateConfig{DbPath: filepath.Join(t.TempDir(), "test.db"), User: "testuser", After: "last week"}
	if err := updateDatabase(context.Background(), &bytes.Buffer{}, config, &fakeRecent{}); err == nil {
		t.Error("expected an error for an unparseable --after")
	}
}
