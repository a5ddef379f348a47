package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

// CreateReport inserts r and sets its ID and CreatedAt.
func (db *DB) CreateReport(ctx context.Context, r *models.Report) error {
	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (post_id, reported_by, reason, created_at) VALUES (?, ?, ?, ?)`,
		r.PostID, r.ReportedBy.ID, r.Reason, now)
	if err != nil {
		return linkError("create report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = now
	return nil
}

// ListOpenReports returns unresolved reports, oldest first.
func (db *DB) ListOpenReports(ctx context.Context) ([]models.Report, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.id, r.post_id, r.reason, r.resolved, r.created_at,
		       u.id, u.username, u.email, u.display_name, u.is_staff
		FROM reports r
		JOIN users u ON u.id = r.reported_by
		WHERE r.resolved = 0
		ORDER BY r.created_at, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.PostID, &r.Reason, &r.Resolved, &r.CreatedAt,
			&r.ReportedBy.ID, &r.ReportedBy.Username, &r.ReportedBy.Email,
			&r.ReportedBy.DisplayName, &r.ReportedBy.IsStaff); err != nil {
			return nil, fmt.Errorf("store: scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResolveReport marks a report resolved. Resolving twice is not an error.
func (db *DB) ResolveReport(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE reports SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: resolve report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
