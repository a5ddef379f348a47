package store

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

// CreateCategory inserts a category with a unique slug derived from name.
func (db *DB) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	s, err := db.uniqueSlug(ctx, "categories", name)
	if err != nil {
		return nil, err
	}
	res, err := db.conn.ExecContext(ctx, `INSERT INTO categories (name, slug) VALUES (?, ?)`, name, s)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrAlreadyExists
		}
		return nil, fmt.Errorf("store: create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name, Slug: s}, nil
}

// ListCategories returns all categories ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCourse inserts c and sets its ID. Course codes are unique.
func (db *DB) CreateCourse(ctx context.Context, c *models.Course) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO courses (code, title, department) VALUES (?, ?, ?)`,
		c.Code, c.Title, c.Department)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create course: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// ListCourses returns all courses ordered by code.
func (db *DB) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, code, title, department FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("store: list courses: %w", err)
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Department); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateTag inserts a tag with a unique slug derived from name.
func (db *DB) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	s, err := db.uniqueSlug(ctx, "tags", name)
	if err != nil {
		return nil, err
	}
	res, err := db.conn.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, ?)`, name, s)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrAlreadyExists
		}
		return nil, fmt.Errorf("store: create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Tag{ID: id, Name: name, Slug: s}, nil
}

// AllTags returns every tag ordered by id.
func (db *DB) AllTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: all tags: %w", err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TagBySlug returns the tag with the given slug.
func (db *DB) TagBySlug(ctx context.Context, s string) (*models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = ?`, s).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, notFound(err, "tag by slug")
	}
	return &t, nil
}

// uniqueSlug slugifies name and appends -1, -2, ... until the slug is
// free in table. table must be a trusted constant.
func (db *DB) uniqueSlug(ctx context.Context, table, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for i := 1; ; i++ {
		var n int
		err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM `+table+` WHERE slug = ?`, candidate).Scan(&n)
		if err != nil {
			return "", fmt.Errorf("store: check slug: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
