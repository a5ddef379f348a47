package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

const threadSelect = `
	SELECT t.id, COALESCE(t.category_id, 0), t.title, t.content, t.is_locked, t.created_at,
	       u.id, u.username, u.email, u.display_name, u.is_staff,
	       (SELECT count(*) FROM thread_likes l WHERE l.thread_id = t.id)
	FROM threads t
	JOIN users u ON u.id = t.creator_id`

// Newest first; id breaks ties between threads created in the same instant.
const threadOrder = ` ORDER BY t.created_at DESC, t.id DESC`

// CreateThread inserts t with its tag, course and resource links in one
// transaction
// and sets t.ID and t.CreatedAt.
func (db *DB) CreateThread(ctx context.Context, t *models.Thread, tagIDs []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var category any
	if t.CategoryID != 0 {
		category = t.CategoryID
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO threads (category_id, creator_id, title, content, is_locked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, category, t.Creator.ID, t.Title, t.Content, t.Locked, now)
	if err != nil {
		return linkError("insert thread", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO thread_tags (thread_id, tag_id) VALUES (?, ?)`, id, tagID); err != nil {
			return linkError("link tag", err)
		}
	}
	for _, courseID := range t.CourseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO thread_courses (thread_id, course_id) VALUES (?, ?)`, id, courseID); err != nil {
			return linkError("link course", err)
		}
	}
	for _, resourceID := range t.ResourceIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO thread_resources (thread_id, resource_id) VALUES (?, ?)`, id, resourceID); err != nil {
			return linkError("link resource", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit thread: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	return nil
}

// GetThread returns the thread with its creator, tags, courses and
// resources.
func (db *DB) GetThread(ctx context.Context, id int64) (*models.Thread, error) {
	row := db.conn.QueryRowContext(ctx, threadSelect+` WHERE t.id = ?`, id)
	t, err := scanThread(row)
	if err != nil {
		return nil, notFound(err, "get thread")
	}
	threads := []models.Thread{*t}
	if err := db.attachTags(ctx, threads); err != nil {
		return nil, err
	}
	*t = threads[0]

	t.CourseIDs, err = db.linkedIDs(ctx,
		`SELECT course_id FROM thread_courses WHERE thread_id = ? ORDER BY course_id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: thread courses: %w", err)
	}
	t.ResourceIDs, err = db.linkedIDs(ctx,
		`SELECT resource_id FROM thread_resources WHERE thread_id = ? ORDER BY resource_id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: thread resources: %w", err)
	}
	return t, nil
}

func (db *DB) linkedIDs(ctx context.Context, query string, threadID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateThread saves the title, content and lock state of an existing thread.
func (db *DB) UpdateThread(ctx context.Context, t *models.Thread) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE threads SET title = ?, content = ?, is_locked = ? WHERE id = ?`,
		t.Title, t.Content, t.Locked, t.ID)
	if err != nil {
		return fmt.Errorf("store: update thread: %w", err)
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

// ListThreads returns one page of threads, newest first, and the total count.
func (db *DB) ListThreads(ctx context.Context, limit, offset int) ([]models.Thread, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM threads`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count threads: %w", err)
	}
	threads, err := db.queryThreads(ctx, threadSelect+threadOrder+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// ThreadsByTag returns the threads carrying the tag, newest first.
func (db *DB) ThreadsByTag(ctx context.Context, tagID int64) ([]models.Thread, error) {
	return db.ThreadsByTags(ctx, []int64{tagID})
}

// ThreadsByTags returns the distinct threads carrying any of the tags,
// newest first.
func (db *DB) ThreadsByTags(ctx context.Context, tagIDs []int64) ([]models.Thread, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(tagIDs)
	return db.queryThreads(ctx,
		threadSelect+` WHERE t.id IN (SELECT thread_id FROM thread_tags WHERE tag_id IN (`+placeholders+`))`+threadOrder,
		args...)
}

// ThreadsMatchingAny returns the distinct threads whose title or content
// contains any of the tokens, newest first. Tokens are expected in lower
// case; SQLite's lower() folds ASCII only, so non-ASCII capitals in stored
// text match only their exact case.
func (db *DB) ThreadsMatchingAny(ctx context.Context, tokens []string) ([]models.Thread, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(tokens))
	args := make([]any, 0, 2*len(tokens))
	for _, tok := range tokens {
		conds = append(conds, `instr(lower(t.title), ?) > 0 OR instr(lower(t.content), ?) > 0`)
		args = append(args, tok, tok)
	}
	return db.queryThreads(ctx, threadSelect+` WHERE `+strings.Join(conds, " OR ")+threadOrder, args...)
}

// ToggleThreadLike adds or removes userID's like and reports whether the
// thread is now liked by that user.
func (db *DB) ToggleThreadLike(ctx context.Context, threadID, userID int64) (bool, error) {
	return db.toggle(ctx, "thread_likes", "thread_id", threadID, userID)
}

func (db *DB) queryThreads(ctx context.Context, query string, args ...any) ([]models.Thread, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query threads: %w", err)
	}
	defer rows.Close()

	var out []models.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan thread: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanThread(row rowScanner) (*models.Thread, error) {
	var t models.Thread
	err := row.Scan(&t.ID, &t.CategoryID, &t.Title, &t.Content, &t.Locked, &t.CreatedAt,
		&t.Creator.ID, &t.Creator.Username, &t.Creator.Email, &t.Creator.DisplayName, &t.Creator.IsStaff,
		&t.Likes)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// attachTags fills Tags on each thread with one query.
func (db *DB) attachTags(ctx context.Context, threads []models.Thread) error {
	if len(threads) == 0 {
		return nil
	}
	index := make(map[int64]int, len(threads))
	ids := make([]int64, len(threads))
	for i, t := range threads {
		index[t.ID] = i
		ids[i] = t.ID
		threads[i].Tags = []models.Tag{}
	}
	placeholders, args := inClause(ids)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT tt.thread_id, g.id, g.name, g.slug
		FROM thread_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.thread_id IN (`+placeholders+`)
		ORDER BY g.name
	`, args...)
	if err != nil {
		return fmt.Errorf("store: thread tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var threadID int64
		var tag models.Tag
		if err := rows.Scan(&threadID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return err
		}
		i := index[threadID]
		threads[i].Tags = append(threads[i].Tags, tag)
	}
	return rows.Err()
}

// toggle flips membership of (ownerID, userID) in a like table. table and
// ownerCol must be trusted constants.
func (db *DB) toggle(ctx context.Context, table, ownerCol string, ownerID, userID int64) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE `+ownerCol+` = ? AND user_id = ?`, ownerID, userID)
	if err != nil {
		return false, fmt.Errorf("store: unlike: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (`+ownerCol+`, user_id) VALUES (?, ?)`, ownerID, userID); err != nil {
			return false, linkError("like", err)
		}
	}
	return liked, tx.Commit()
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

// linkError maps foreign key failures to apperr.ErrNotFound.
func linkError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("store: %s: referenced row missing: %w", op, apperr.ErrNotFound)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
