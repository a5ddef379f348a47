// Package testutil provides shared test helpers for setting up databases
// and seed data.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/agora/internal/models"
	"github.com/starford/agora/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "agora-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SeedUser inserts a user with an example.com address.
func SeedUser(t *testing.T, db *store.DB, username string, staff bool) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", IsStaff: staff}
	if err := db.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedTag inserts a tag.
func SeedTag(t *testing.T, db *store.DB, name string) models.Tag {
	t.Helper()
	tag, err := db.CreateTag(context.Background(), name)
	if err != nil {
		t.Fatalf("seed tag %s: %v", name, err)
	}
	return *tag
}

// SeedThread inserts a thread directly, bypassing events.
func SeedThread(t *testing.T, db *store.DB, creator models.User, title, content string, tagIDs ...int64) models.Thread {
	t.Helper()
	th := models.Thread{Creator: creator, Title: title, Content: content}
	if err := db.CreateThread(context.Background(), &th, tagIDs); err != nil {
		t.Fatalf("seed thread %s: %v", title, err)
	}
	return th
}

// SeedPost inserts a post directly, bypassing events.
func SeedPost(t *testing.T, db *store.DB, author models.User, threadID int64, content string) models.Post {
	t.Helper()
	p := models.Post{ThreadID: threadID, Author: author, Content: content}
	if err := db.CreatePost(context.Background(), &p); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}
