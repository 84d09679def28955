package database

import (
	"context"

	"lucky-spin/internal/models"
)

// LoadPrizeConfig returns the wheel segments in board order.
func (s *Store) LoadPrizeConfig(ctx context.Context) ([]models.Segment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT value, label FROM prize_config ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.Value, &seg.Label); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// ReplacePrizeConfig swaps the whole segment table in one transaction.
func (s *Store) ReplacePrizeConfig(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return ErrEmptyPrizeConfig
	}
	for _, seg := range segments {
		if seg.Value < 0 {
			return ErrNegativePrize
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM prize_config"); err != nil {
		return err
	}
	var insert string
	if s.dbType == "sqlite" {
		insert = "INSERT INTO prize_config (position, value, label) VALUES (?, ?, ?)"
	} else {
		insert = "INSERT INTO prize_config (position, value, label) VALUES ($1, $2, $3)"
	}
	for i, seg := range segments {
		if _, err := tx.ExecContext(ctx, insert, i, seg.Value, seg.Label); err != nil {
			return err
		}
	}
	return tx.Commit()
}
