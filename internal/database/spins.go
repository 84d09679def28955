package database

import (
	"context"
	"fmt"

	"lucky-spin/internal/models"
)

// RecordSpin appends one audit row for a resolved spin.
func (s *Store) RecordSpin(ctx context.Context, rec models.SpinRecord) error {
	var query string
	if s.dbType == "sqlite" {
		query = "INSERT INTO spin_log (spin_id, phone, label, amount, raw_degrees) VALUES (?, ?, ?, ?, ?)"
	} else {
		query = "INSERT INTO spin_log (spin_id, phone, label, amount, raw_degrees) VALUES ($1, $2, $3, $4, $5)"
	}
	_, err := s.db.ExecContext(ctx, query, rec.SpinID, rec.Phone, rec.Label, rec.Amount, rec.RawDegrees)
	return err
}

// ListSpins pages through the audit log, newest first, and returns the
// total row count alongside the page.
func (s *Store) ListSpins(ctx context.Context, limit, offset int) ([]models.SpinRecord, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spin_log").Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT id, spin_id, phone, label, amount, raw_degrees, created_at
FROM spin_log ORDER BY id DESC LIMIT %s OFFSET %s`, s.ph(1), s.ph(2))
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []models.SpinRecord
	for rows.Next() {
		var rec models.SpinRecord
		if err := rows.Scan(&rec.ID, &rec.SpinID, &rec.Phone, &rec.Label, &rec.Amount, &rec.RawDegrees, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
