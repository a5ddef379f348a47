// Package mention extracts @username mentions from post content and
// resolves them against the user directory.
package mention

import (
	"context"
	"regexp"

	"github.com/starford/agora/internal/models"
)

// A mention is '@' followed by one or more word characters. Letters and
// digits are matched across scripts, not just ASCII.
var mentionRe = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// Lookup resolves usernames to users by exact match.
type Lookup interface {
	UsersByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
}

// Usernames returns the distinct usernames mentioned in text, in order of
// first appearance.
func Usernames(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Extract returns the users mentioned in text. Usernames with no matching
// user are dropped. The result holds each user at most once and has no
// guaranteed order.
func Extract(ctx context.Context, lookup Lookup, text string) ([]models.User, error) {
	names := Usernames(text)
	if len(names) == 0 {
		return nil, nil
	}
	users, err := lookup.UsersByUsernames(ctx, names)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(users))
	out := users[:0]
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
