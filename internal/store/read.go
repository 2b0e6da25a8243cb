package store

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ademuri/artist-graph/internal/graph"
)

func (s *Store) UserExists(user string) (bool, error) {
	var name string
	err := s.db.QueryRow("SELECT name FROM User WHERE name = ?", user).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking user %q: %w", user, err)
	}
	return true, nil
}

func (s *Store) GetLastUpdated(user string) (time.Time, error) {
	row := s.db.QueryRow("SELECT last_updated FROM User WHERE name = ?", user)
	var t sql.NullTime
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting last updated: %w", err)
	}
	return t.Time, nil
}

// GetObservations returns a user's library in import order.
func (s *Store) GetObservations(user string) ([]graph.Observation, error) {
	query := `
		SELECT t.name, t.artist, COALESCE(t.credits, ''), COALESCE(t.album, ''),
			COALESCE(t.duration, ''), COALESCE(t.popularity, 0)
		FROM Saved s
		JOIN Track t ON s.track = t.id
		WHERE s.user = ?
		ORDER BY s.position ASC
	`
	rows, err := s.db.Query(query, user)
	if err != nil {
		return nil, fmt.Errorf("querying library of %q: %w", user, err)
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

func decodeCredits(credits string) ([]string, error) {
	if credits == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(credits), &out); err != nil {
		return nil, fmt.Errorf("decoding credits %q: %w", credits, err)
	}
	return out, nil
}

// Tag Cache Helpers

// GetArtistTags returns an artist's cached tags, heaviest first.
func (s *Store) GetArtistTags(artist string) ([]ArtistTag, error) {
	rows, err := s.db.Query("SELECT tag, count FROM ArtistTag WHERE artist = ? ORDER BY count DESC, tag ASC", artist)
	if err != nil {
		return nil, fmt.Errorf("querying tags of %q: %w", artist, err)
	}
	defer rows.Close()

	var tags []ArtistTag
	for rows.Next() {
		var t ArtistTag
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ArtistTagsStale reports whether an artist's tags were never fetched or
// were fetched longer than interval ago.
func (s *Store) ArtistTagsStale(artist string, interval time.Duration) (bool, error) {
	var updated sql.NullTime
	err := s.db.QueryRow("SELECT tags_last_updated FROM Artist WHERE name = ?", artist).Scan(&updated)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking tag age of %q: %w", artist, err)
	}
	if !updated.Valid {
		return true, nil
	}
	return updated.Time.Before(time.Now().Add(-interval)), nil
}
