package store

import (
	"context"
	"fmt"

	"github.com/starford/agora/internal/models"
)

// GetCourse returns the course with the given id.
func (db *DB) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var c models.Course
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, code, title, department FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Code, &c.Title, &c.Department)
	if err != nil {
		return nil, notFound(err, "get course")
	}
	return &c, nil
}

// CreateResource inserts r under its course and sets r.ID. A missing
// course yields apperr.ErrNotFound.
func (db *DB) CreateResource(ctx context.Context, r *models.Resource) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO resources (course_id, title, type, url) VALUES (?, ?, ?, ?)`,
		r.CourseID, r.Title, r.Type, r.URL)
	if err != nil {
		return linkError("create resource", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ListResources returns the resources of a course ordered by id.
func (db *DB) ListResources(ctx context.Context, courseID int64) ([]models.Resource, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, course_id, title, type, url FROM resources WHERE course_id = ? ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("store: list resources: %w", err)
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.CourseID, &r.Title, &r.Type, &r.URL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
