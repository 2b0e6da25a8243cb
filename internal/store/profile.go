package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/similarity"
)

// ProfileStats is the summary shown in listings and leaderboards.
type ProfileStats struct {
	SongCount      int      `json:"song_count" yaml:"song_count"`
	ArtistCount    int      `json:"artist_count" yaml:"artist_count"`
	TopGenres      []string `json:"top_genres" yaml:"top_genres"`
	DiversityScore float64  `json:"diversity_score" yaml:"diversity_score"`
}

func statsFor(v similarity.TasteVector) ProfileStats {
	return ProfileStats{
		SongCount:      v.TotalSongs,
		ArtistCount:    v.UniqueArtists,
		TopGenres:      v.TopGenres,
		DiversityScore: v.Diversity,
	}
}

// Profile is a stored taste snapshot that can be compared with others.
type Profile struct {
	ID        string                 `json:"id" yaml:"id"`
	Name      string                 `json:"name" yaml:"name"`
	Public    bool                   `json:"public" yaml:"public"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
	Vector    similarity.TasteVector `json:"taste_vector" yaml:"-"`
	Stats     ProfileStats           `json:"stats" yaml:"stats"`
}

// Member adapts the profile for the similarity functions.
func (p Profile) Member() similarity.Member {
	return similarity.Member{ID: p.ID, Name: p.Name, Vector: p.Vector}
}

// CreateProfile stores a taste vector with the songs it was built from and
// returns the new profile's id.
func (s *Store) CreateProfile(name string, public bool, v similarity.TasteVector, obs []graph.Observation) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}
	vector, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding taste vector: %w", err)
	}
	stats, err := json.Marshal(statsFor(v))
	if err != nil {
		return "", fmt.Errorf("encoding stats: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec("INSERT INTO Profile (id, name, public, created_at, taste_vector, stats) VALUES (?, ?, ?, ?, ?, ?)",
		id, name, public, time.Now().UTC(), string(vector), string(stats))
	if err != nil {
		return "", fmt.Errorf("inserting profile: %w", err)
	}

	for i, o := range obs {
		credits, err := encodeCredits(o.AllArtists)
		if err != nil {
			return "", err
		}
		_, err = tx.Exec(`INSERT INTO ProfileSong (profile, position, title, artist, credits, album, duration, popularity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, id, i, o.Title, o.Artist, credits, o.Album, o.Duration, o.Popularity)
		if err != nil {
			return "", fmt.Errorf("inserting profile song: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

const profileColumns = "id, name, public, created_at, taste_vector, stats"

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var (
		p             Profile
		vector, stats string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Public, &p.CreatedAt, &vector, &stats); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal([]byte(vector), &p.Vector); err != nil {
		return Profile{}, fmt.Errorf("decoding taste vector of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return Profile{}, fmt.Errorf("decoding stats of %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) GetProfile(id string) (Profile, error) {
	p, err := scanProfile(s.db.QueryRow("SELECT "+profileColumns+" FROM Profile WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %s: %w", id, err)
	}
	return p, nil
}

// GetProfileObservations returns the songs a profile was built from.
func (s *Store) GetProfileObservations(id string) ([]graph.Observation, error) {
	if _, err := s.GetProfile(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT title, artist, COALESCE(credits, ''), COALESCE(album, ''), COALESCE(duration, ''), COALESCE(popularity, 0)
		FROM ProfileSong WHERE profile = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying songs of profile %s: %w", id, err)
	}
	defer rows.Close()

	obs := []graph.Observation{}
	for rows.Next() {
		var (
			o       graph.Observation
			credits string
		)
		if err := rows.Scan(&o.Title, &o.Artist, &credits, &o.Album, &o.Duration, &o.Popularity); err != nil {
			return nil, err
		}
		if o.AllArtists, err = decodeCredits(credits); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// ListPublicProfiles returns public profiles, newest first. limit <= 0
// means no limit.
func (s *Store) ListPublicProfiles(limit int) ([]Profile, error) {
	query := "SELECT " + profileColumns + " FROM Profile WHERE public = 1 ORDER BY created_at DESC, id ASC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying public profiles: %w", err)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile, its songs and its group memberships.
func (s *Store) DeleteProfile(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM Profile WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM ProfileSong WHERE profile = ?", id); err != nil {
		return fmt.Errorf("deleting songs of profile %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM GroupMember WHERE profile = ?", id); err != nil {
		return fmt.Errorf("deleting memberships of profile %s: %w", id, err)
	}
	return tx.Commit()
}
