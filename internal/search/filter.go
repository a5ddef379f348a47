// Package search ranks forum threads against a free-text query: a coarse
// substring prefilter selects candidates, then token-set similarity over
// title, content and tags orders them.
package search

import (
	"context"
	"strings"

	"github.com/starford/agora/internal/models"
)

// Source is the read side of the thread store used by search.
type Source interface {
	// ThreadsMatchingAny returns the distinct threads whose title or
	// content contains at least one of the lowercase tokens as a
	// case-insensitive substring.
	ThreadsMatchingAny(ctx context.Context, tokens []string) ([]models.Thread, error)
	// AllTags returns every tag.
	AllTags(ctx context.Context) ([]models.Tag, error)
	// ThreadsByTag returns the threads carrying the given tag.
	ThreadsByTag(ctx context.Context, tagID int64) ([]models.Thread, error)
}

// Tokenize lowercases the query and splits it on whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// FilterCandidates returns the threads that contain any query token in
// their title or content. A blank query yields no candidates and does not
// touch the source.
func FilterCandidates(ctx context.Context, src Source, query string) ([]models.Thread, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	threads, err := src.ThreadsMatchingAny(ctx, tokens)
	if err != nil {
		return nil, err
	}
	return distinct(threads), nil
}

// MatchesAny is the in-memory form of the candidate predicate.
func MatchesAny(t models.Thread, tokens []string) bool {
	title := strings.ToLower(t.Title)
	content := strings.ToLower(t.Content)
	for _, tok := range tokens {
		if strings.Contains(title, tok) || strings.Contains(content, tok) {
			return true
		}
	}
	return false
}

func distinct(threads []models.Thread) []models.Thread {
	seen := make(map[int64]struct{}, len(threads))
	out := threads[:0]
	for _, t := range threads {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
