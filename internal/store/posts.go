package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

const postSelect = `
	SELECT p.id, p.thread_id, p.content, p.is_deleted, p.created_at,
	       u.id, u.username, u.email, u.display_name, u.is_staff,
	       (SELECT count(*) FROM post_likes l WHERE l.post_id = p.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// CreatePost inserts p and sets its ID and CreatedAt.
func (db *DB) CreatePost(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (thread_id, author_id, content, created_at) VALUES (?, ?, ?, ?)`,
		p.ThreadID, p.Author.ID, p.Content, now)
	if err != nil {
		return linkError("create post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "get post")
	}
	return p, nil
}

// ListPosts returns the thread's posts newest first, soft-deleted ones included.
func (db *DB) ListPosts(ctx context.Context, threadID int64) ([]models.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		postSelect+` WHERE p.thread_id = ? ORDER BY p.created_at DESC, p.id DESC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SoftDeletePost marks the post deleted; the row is kept.
func (db *DB) SoftDeletePost(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE posts SET is_deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete post: %w", err)
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

func (db *DB) TogglePostLike(ctx context.Context, postID, userID int64) (bool, error) {
	return db.toggle(ctx, "post_likes", "post_id", postID, userID)
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.ThreadID, &p.Content, &p.Deleted, &p.CreatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.Email, &p.Author.DisplayName, &p.Author.IsStaff,
		&p.Likes)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
