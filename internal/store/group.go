package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Group is a set of profiles compared against each other.
type Group struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Members   []string  `json:"members" yaml:"members"`
}

func (s *Store) CreateGroup(name string) (Group, error) {
	g := Group{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
		Members:   []string{},
	}
	_, err := s.db.Exec("INSERT INTO CompareGroup (id, name, created_at) VALUES (?, ?, ?)", g.ID, g.Name, g.CreatedAt)
	if err != nil {
		return Group{}, fmt.Errorf("inserting group: %w", err)
	}
	return g, nil
}

// GetGroup returns a group with its member ids in join order.
func (s *Store) GetGroup(id string) (Group, error) {
	var g Group
	err := s.db.QueryRow("SELECT id, name, created_at FROM CompareGroup WHERE id = ?", id).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return Group{}, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Group{}, fmt.Errorf("reading group %s: %w", id, err)
	}

	rows, err := s.db.Query("SELECT profile FROM GroupMember WHERE group_id = ? ORDER BY joined_at ASC, profile ASC", id)
	if err != nil {
		return Group{}, fmt.Errorf("querying members of group %s: %w", id, err)
	}
	defer rows.Close()

	g.Members = []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return Group{}, err
		}
		g.Members = append(g.Members, m)
	}
	return g, rows.Err()
}

// JoinGroup adds a profile to a group. Joining twice is a no-op.
func (s *Store) JoinGroup(groupID, profileID string) (Group, error) {
	if _, err := s.GetGroup(groupID); err != nil {
		return Group{}, err
	}
	if _, err := s.GetProfile(profileID); err != nil {
		return Group{}, err
	}
	_, err := s.db.Exec("INSERT OR IGNORE INTO GroupMember (group_id, profile, joined_at) VALUES (?, ?, ?)",
		groupID, profileID, time.Now().UTC())
	if err != nil {
		return Group{}, fmt.Errorf("joining group %s: %w", groupID, err)
	}
	return s.GetGroup(groupID)
}

func (s *Store) LeaveGroup(groupID, profileID string) error {
	res, err := s.db.Exec("DELETE FROM GroupMember WHERE group_id = ? AND profile = ?", groupID, profileID)
	if err != nil {
		return fmt.Errorf("leaving group %s: %w", groupID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s in group %s: %w", profileID, groupID, ErrNotFound)
	}
	return nil
}

// GroupProfiles loads every member profile of a group.
func (s *Store) GroupProfiles(groupID string) ([]Profile, error) {
	g, err := s.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(g.Members))
	for _, id := range g.Members {
		p, err := s.GetProfile(id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
