package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lucky-spin/internal/models"
)

// SaveUser writes the signed-in user record under the fixed session key,
// replacing whatever was there.
func (s *Store) SaveUser(ctx context.Context, user models.SavedUser) error {
	var query string
	if s.dbType == "sqlite" {
		query = `
INSERT INTO saved_user (key, phone, name) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE
SET phone = excluded.phone,
    name = excluded.name,
    updated_at = datetime('now')`
	} else {
		query = `
INSERT INTO saved_user (key, phone, name) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET phone = EXCLUDED.phone,
    name = EXCLUDED.name,
    updated_at = NOW()`
	}
	_, err := s.db.ExecContext(ctx, query, savedUserKey, user.Phone, user.Name)
	return err
}

// LoadUser reads the saved record, returning nil when no user is stored.
func (s *Store) LoadUser(ctx context.Context) (*models.SavedUser, error) {
	query := fmt.Sprintf("SELECT phone, name FROM saved_user WHERE key = %s", s.ph(1))
	row := s.db.QueryRowContext(ctx, query, savedUserKey)
	var user models.SavedUser
	if err := row.Scan(&user.Phone, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ClearUser removes the saved record on logout.
func (s *Store) ClearUser(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM saved_user WHERE key = %s", s.ph(1))
	_, err := s.db.ExecContext(ctx, query, savedUserKey)
	return err
}
