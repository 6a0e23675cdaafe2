package store

import (
	"fmt"
	"time"
)

// ReplaceGenres swaps the cached genre list for names, keeping their order.
func (s *Store) ReplaceGenres(names []string, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM genres"); err != nil {
		return fmt.Errorf("clear genres: %w", err)
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO genres (name, position, fetched_at) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, name := range names {
		if _, err := stmt.Exec(name, i, fetchedAt.UTC()); err != nil {
			return fmt.Errorf("insert genre %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// ListGenres returns the cached genres and when they were fetched. An empty
// cache returns a zero time.
func (s *Store) ListGenres() ([]string, time.Time, error) {
	rows, err := s.db.Query("SELECT name, fetched_at FROM genres ORDER BY position")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	genres := []string{}
	var fetchedAt time.Time
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, time.Time{}, err
		}
		if fetchedAt.IsZero() || at.Before(fetchedAt) {
			fetchedAt = at
		}
		genres = append(genres, name)
	}
	return genres, fetchedAt, rows.Err()
}
