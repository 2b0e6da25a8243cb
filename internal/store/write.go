package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ademuri/artist-graph/internal/graph"
)

// CreateUser ensures a user exists in the database.
func (s *Store) CreateUser(user string) error {
	row := s.db.QueryRow("SELECT name FROM User WHERE name = ?", user)
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		_, err := s.db.Exec("INSERT INTO User (name) VALUES (?)", user)
		if err != nil {
			return fmt.Errorf("inserting user %q: %w", user, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking user %q: %w", user, err)
	}
	return nil
}

func (s *Store) SetLastUpdated(user string, updated time.Time) error {
	_, err := s.db.Exec("UPDATE User SET last_updated = ? WHERE name = ?", updated, user)
	if err != nil {
		return fmt.Errorf("updating last_updated for %q: %w", user, err)
	}
	return nil
}

// AddObservations adds songs to a user's library in one transaction.
// Tracks are unique by (artist, album, title), so importing the same export
// twice is a no-op. Observations without a title or artist are skipped.
func (s *Store) AddObservations(user string, obs []graph.Observation) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM Saved WHERE user = ?", user).Scan(&position); err != nil {
		return 0, fmt.Errorf("reading library size: %w", err)
	}

	added := 0
	for _, o := range obs {
		o.Title = strings.TrimSpace(o.Title)
		o.Artist = strings.TrimSpace(o.Artist)
		if o.Title == "" || o.Artist == "" {
			continue
		}
		if err := createArtist(tx, o.Artist); err != nil {
			return 0, err
		}
		trackID, err := createTrack(tx, o)
		if err != nil {
			return 0, err
		}
		ok, err := createSaved(tx, user, trackID, position)
		if err != nil {
			return 0, err
		}
		if ok {
			position++
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return added, nil
}

func createArtist(tx *sql.Tx, name string) error {
	var dummy string
	err := tx.QueryRow("SELECT name FROM Artist WHERE name = ?", name).Scan(&dummy)
	if err == sql.ErrNoRows {
		_, err := tx.Exec("INSERT INTO Artist (name) VALUES (?)", name)
		if err != nil {
			return fmt.Errorf("inserting artist %q: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking artist %q: %w", name, err)
	}
	return nil
}

func createTrack(tx *sql.Tx, o graph.Observation) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM Track WHERE artist = ? AND album = ? AND name = ?", o.Artist, o.Album, o.Title).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", o.Title, err)
	}

	credits, err := encodeCredits(o.AllArtists)
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec("INSERT INTO Track (artist, album, name, credits, duration, popularity) VALUES (?, ?, ?, ?, ?, ?)",
		o.Artist, o.Album, o.Title, credits, o.Duration, o.Popularity)
	if err != nil {
		return 0, fmt.Errorf("inserting track %q: %w", o.Title, err)
	}
	return res.LastInsertId()
}

func createSaved(tx *sql.Tx, user string, trackID int64, position int) (bool, error) {
	var dummy int64
	err := tx.QueryRow("SELECT track FROM Saved WHERE user = ? AND track = ?", user, trackID).Scan(&dummy)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("checking saved track: %w", err)
	}

	_, err = tx.Exec("INSERT INTO Saved (user, track, position) VALUES (?, ?, ?)", user, trackID, position)
	if err != nil {
		return false, fmt.Errorf("inserting saved track: %w", err)
	}
	return true, nil
}

func encodeCredits(credits []string) (string, error) {
	if len(credits) == 0 {
		return "", nil
	}
	data, err := json.Marshal(credits)
	if err != nil {
		return "", fmt.Errorf("encoding credits: %w", err)
	}
	return string(data), nil
}

// Tag Operations

// ArtistTag is one Last.fm tag with its weight.
type ArtistTag struct {
	Name  string
	Count int
}

// SaveArtistTags replaces the cached tags of an artist and marks them fresh.
func (s *Store) SaveArtistTags(artist string, tags []ArtistTag) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := createArtist(tx, artist); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM ArtistTag WHERE artist = ?", artist); err != nil {
		return fmt.Errorf("clearing tags of %q: %w", artist, err)
	}

	for _, tag := range tags {
		_, err := tx.Exec("INSERT OR IGNORE INTO Tag (name) VALUES (?)", tag.Name)
		if err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag.Name, err)
		}

		_, err = tx.Exec("INSERT OR REPLACE INTO ArtistTag (artist, tag, count) VALUES (?, ?, ?)", artist, tag.Name, tag.Count)
		if err != nil {
			return fmt.Errorf("linking tag %q to artist %q: %w", tag.Name, artist, err)
		}
	}

	if err := s.MarkArtistTagsUpdated(tx, artist); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) MarkArtistTagsUpdated(tx *sql.Tx, artist string) error {
	query := "UPDATE Artist SET tags_last_updated = ? WHERE name = ?"

	var err error
	if tx != nil {
		_, err = tx.Exec(query, time.Now(), artist)
	} else {
		_, err = s.db.Exec(query, time.Now(), artist)
	}

	if err != nil {
		return fmt.Errorf("updating artist tag timestamp: %w", err)
	}
	return nil
}
