package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/similarity"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "artist-graph.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

func TestCreateUser(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	user := "testuser"
	err := s.CreateUser(user)
	if err != nil {
		t.Fatalf("CreateUser(%q) error: %v", user, err)
	}

	// Idempotency
	err = s.CreateUser(user)
	if err != nil {
		t.Fatalf("CreateUser(%q) error: %v", user, err)
	}

	exists, err := s.UserExists(user)
	if err != nil || !exists {
		t.Errorf("UserExists(%q) = %v, %v, want true", user, exists, err)
	}
	exists, err = s.UserExists("nobody")
	if err != nil || exists {
		t.Errorf("UserExists(nobody) = %v, %v, want false", exists, err)
	}
}

func TestReopenExistingDb(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "artist-graph.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.CreateUser("u"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	defer s.Close()
	if exists, _ := s.UserExists("u"); !exists {
		t.Errorf("user lost after reopening")
	}
}

func TestAddObservations(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	user := "testuser"
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	obs := []graph.Observation{
		{Title: "Rush Over Me", Artist: "Seven Lions", AllArtists: []string{"Seven Lions", "Illenium"}, Album: "Single", Duration: "4:11", Popularity: 55},
		{Title: "Lonely", Artist: "Illenium"},
		{Title: "", Artist: "Skipped"},
	}

	added, err := s.AddObservations(user, obs)
	if err != nil {
		t.Fatalf("AddObservations failed: %v", err)
	}
	if added != 2 {
		t.Errorf("AddObservations added %d, want 2", added)
	}

	got, err := s.GetObservations(user)
	if err != nil {
		t.Fatalf("GetObservations: %v", err)
	}
	if !reflect.DeepEqual(got, obs[:2]) {
		t.Errorf("GetObservations = %+v, want %+v", got, obs[:2])
	}

	// Test idempotent insert (same data)
	added, err = s.AddObservations(user, obs)
	if err != nil {
		t.Fatalf("AddObservations (repeat) failed: %v", err)
	}
	if added != 0 {
		t.Errorf("AddObservations (repeat) added %d, want 0", added)
	}

	added, err = s.AddObservations(user, []graph.Observation{{Title: "New", Artist: "Illenium"}})
	if err != nil {
		t.Fatalf("AddObservations (append) failed: %v", err)
	}
	got, _ = s.GetObservations(user)
	if added != 1 || len(got) != 3 || got[2].Title != "New" {
		t.Errorf("appended library = %+v", got)
	}
}

func TestLastUpdated(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	user := "testuser"
	s.CreateUser(user)

	last, err := s.GetLastUpdated(user)
	if err != nil {
		t.Fatalf("GetLastUpdated: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("GetLastUpdated before any update = %v, want zero", last)
	}

	now := time.Now().Truncate(time.Second)
	if err := s.SetLastUpdated(user, now); err != nil {
		t.Fatalf("SetLastUpdated: %v", err)
	}
	last, err = s.GetLastUpdated(user)
	if err != nil {
		t.Fatalf("GetLastUpdated: %v", err)
	}
	if !last.Equal(now) {
		t.Errorf("GetLastUpdated = %v, want %v", last, now)
	}
}

func TestTagCache(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	artist := "Seven Lions"
	stale, err := s.ArtistTagsStale(artist, 24*time.Hour)
	if err != nil {
		t.Fatalf("ArtistTagsStale: %v", err)
	}
	if !stale {
		t.Errorf("unknown artist should be stale")
	}

	tags := []ArtistTag{{Name: "melodic dubstep", Count: 100}, {Name: "trance", Count: 40}}
	if err := s.SaveArtistTags(artist, tags); err != nil {
		t.Fatalf("SaveArtistTags: %v", err)
	}

	stale, err = s.ArtistTagsStale(artist, 24*time.Hour)
	if err != nil {
		t.Fatalf("ArtistTagsStale 2: %v", err)
	}
	if stale {
		t.Errorf("freshly tagged artist should not be stale")
	}

	got, err := s.GetArtistTags(artist)
	if err != nil {
		t.Fatalf("GetArtistTags: %v", err)
	}
	if !reflect.DeepEqual(got, tags) {
		t.Errorf("GetArtistTags = %v, want %v", got, tags)
	}

	// Saving again replaces the old set.
	if err := s.SaveArtistTags(artist, []ArtistTag{{Name: "edm", Count: 5}}); err != nil {
		t.Fatalf("SaveArtistTags 2: %v", err)
	}
	got, _ = s.GetArtistTags(artist)
	if len(got) != 1 || got[0].Name != "edm" {
		t.Errorf("GetArtistTags after replace = %v", got)
	}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(name string) string {
	if l, ok := m[name]; ok {
		return l
	}
	return genre.Other
}

func testProfile(t *testing.T, s *Store, name string, public bool, obs []graph.Observation) string {
	t.Helper()
	v := similarity.NewTasteVector(obs, mapResolver{"Seven Lions": "Melodic Bass", "Drake": "Hip-Hop"})
	id, err := s.CreateProfile(name, public, v, obs)
	if err != nil {
		t.Fatalf("CreateProfile(%q): %v", name, err)
	}
	return id
}

func TestProfiles(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	obs := []graph.Observation{
		{Title: "A", Artist: "Seven Lions", AllArtists: []string{"Seven Lions", "Drake"}},
		{Title: "B", Artist: "Drake"},
	}
	id := testProfile(t, s, "alice", true, obs)
	testProfile(t, s, "bob", false, obs)
	anon := testProfile(t, s, "  ", true, nil)

	p, err := s.GetProfile(id)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "alice" || !p.Public {
		t.Errorf("GetProfile = %+v", p)
	}
	if p.Stats.SongCount != 2 || p.Stats.ArtistCount != 2 {
		t.Errorf("profile stats = %+v", p.Stats)
	}
	if p.Vector.GenreWeights["Hip-Hop"] != 0.5 {
		t.Errorf("stored taste vector = %+v", p.Vector)
	}

	songs, err := s.GetProfileObservations(id)
	if err != nil {
		t.Fatalf("GetProfileObservations: %v", err)
	}
	if !reflect.DeepEqual(songs, obs) {
		t.Errorf("GetProfileObservations = %+v, want %+v", songs, obs)
	}

	public, err := s.ListPublicProfiles(0)
	if err != nil {
		t.Fatalf("ListPublicProfiles: %v", err)
	}
	if len(public) != 2 {
		t.Errorf("ListPublicProfiles returned %d profiles, want 2", len(public))
	}
	if a, _ := s.GetProfile(anon); a.Name != "Anonymous" {
		t.Errorf("blank name stored as %q", a.Name)
	}

	if err := s.DeleteProfile(id); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if _, err := s.GetProfile(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile after delete: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteProfile(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProfile twice: got %v, want ErrNotFound", err)
	}
}

func TestGroups(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	a := testProfile(t, s, "a", true, []graph.Observation{{Title: "x", Artist: "Drake"}})
	b := testProfile(t, s, "b", true, []graph.Observation{{Title: "y", Artist: "Seven Lions"}})

	g, err := s.CreateGroup("friends")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if _, err := s.JoinGroup(g.ID, a); err != nil {
		t.Fatalf("JoinGroup(a): %v", err)
	}
	if _, err := s.JoinGroup(g.ID, a); err != nil {
		t.Fatalf("JoinGroup(a) twice: %v", err)
	}
	got, err := s.JoinGroup(g.ID, b)
	if err != nil {
		t.Fatalf("JoinGroup(b): %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("members = %v, want 2", got.Members)
	}

	if _, err := s.JoinGroup(g.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("JoinGroup with unknown profile: got %v", err)
	}
	if _, err := s.JoinGroup("missing", a); !errors.Is(err, ErrNotFound) {
		t.Errorf("JoinGroup with unknown group: got %v", err)
	}

	profiles, err := s.GroupProfiles(g.ID)
	if err != nil {
		t.Fatalf("GroupProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("GroupProfiles returned %d, want 2", len(profiles))
	}

	if err := s.LeaveGroup(g.ID, a); err != nil {
		t.Fatalf("LeaveGroup: %v", err)
	}
	if err := s.LeaveGroup(g.ID, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("LeaveGroup twice: got %v", err)
	}
	g, _ = s.GetGroup(g.ID)
	if !reflect.DeepEqual(g.Members, []string{b}) {
		t.Errorf("members after leave = %v", g.Members)
	}

	// Deleting a profile drops its memberships.
	if err := s.DeleteProfile(b); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	g, _ = s.GetGroup(g.ID)
	if len(g.Members) != 0 {
		t.Errorf("members after delete = %v", g.Members)
	}
}
