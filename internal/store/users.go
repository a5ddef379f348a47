package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

const userColumns = `id, username, email, display_name, is_staff`

// CreateUser inserts u and sets its ID. A duplicate username yields
// apperr.ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, display_name, is_staff) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.DisplayName, u.IsStaff)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUser returns the user with the given id.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns the user with exactly this username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// UsersByUsernames resolves usernames by exact match. Unknown names are
// skipped; the result is ordered by username.
func (db *DB) UsersByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(usernames)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username IN (`+placeholders+`) ORDER BY username`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: users by username: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ThreadParticipants returns the distinct users who authored at least one
// post in the thread, deleted posts included.
func (db *DB) ThreadParticipants(ctx context.Context, threadID int64) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.display_name, u.is_staff
		FROM users u
		WHERE u.id IN (SELECT DISTINCT author_id FROM posts WHERE thread_id = ?)
		ORDER BY u.id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("store: thread participants: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.IsStaff); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func inClause[T any](values []T) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(values)), ","), args
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
