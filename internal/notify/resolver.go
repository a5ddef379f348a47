// Package notify turns persistence events into best-effort email
// notifications: it resolves who should hear about an event, builds the
// messages and hands them to a Dispatcher that never fails the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/agora/internal/mention"
	"github.com/starford/agora/internal/models"
)

// ExcerptLength is how many characters of post content go into an email.
const ExcerptLength = 300

// Kind classifies a notification.
type Kind string

const (
	KindReply   Kind = "reply"
	KindMention Kind = "mention"
	KindLock    Kind = "lock"
)

// Message is one notification addressed to a recipient list.
type Message struct {
	Kind       Kind
	Subject    string
	Body       string
	Recipients []string
}

// Directory is the read side of the user store the resolver needs.
type Directory interface {
	mention.Lookup
	// ThreadParticipants returns the distinct authors of posts in a thread.
	ThreadParticipants(ctx context.Context, threadID int64) ([]models.User, error)
}

// Resolver computes recipients and message content for persistence events.
// Directory failures degrade to fewer recipients and are logged, never
// returned.
type Resolver struct {
	dir    Directory
	logger *slog.Logger
}

func NewResolver(dir Directory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dir: dir, logger: logger}
}

// PostCreated returns the messages for a newly created post: first the
// reply batch for the thread creator and participants, then one message per
// mentioned user. Mentioned users are left out of the reply batch unless
// they created the thread.
func (r *Resolver) PostCreated(ctx context.Context, post models.Post, thread models.Thread) []Message {
	author := post.Author

	mentioned, err := mention.Extract(ctx, r.dir, post.Content)
	if err != nil {
		r.logger.WarnContext(ctx, "mention lookup failed",
			slog.Int64("post_id", post.ID), slog.String("error", err.Error()))
		mentioned = nil
	}
	mentionedIDs := make(map[int64]struct{}, len(mentioned))
	for _, u := range mentioned {
		mentionedIDs[u.ID] = struct{}{}
	}

	participants, err := r.dir.ThreadParticipants(ctx, thread.ID)
	if err != nil {
		r.logger.WarnContext(ctx, "participant lookup failed",
			slog.Int64("thread_id", thread.ID), slog.String("error", err.Error()))
		participants = nil
	}

	var base []models.User
	if thread.Creator.ID != author.ID {
		base = append(base, thread.Creator)
	}
	for _, u := range participants {
		if u.ID == author.ID {
			continue
		}
		if _, ok := mentionedIDs[u.ID]; ok {
			continue
		}
		base = append(base, u)
	}

	excerpt := Excerpt(post.Content)
	msgs := []Message{{
		Kind:       KindReply,
		Subject:    fmt.Sprintf("New reply in: %s", thread.Title),
		Body:       replyBody(author.Username, thread.Title, excerpt),
		Recipients: emailSet(base),
	}}

	for _, u := range mentioned {
		if u.ID == author.ID || u.Email == "" {
			continue
		}
		msgs = append(msgs, Message{
			Kind:       KindMention,
			Subject:    fmt.Sprintf("You were mentioned in '%s'", thread.Title),
			Body:       mentionBody(author.Username, thread.Title, excerpt),
			Recipients: []string{u.Email},
		})
	}
	return msgs
}

// ThreadUpdated returns the lock status message for a saved thread,
// addressed to the creator and every participant. Empty email addresses
// are passed through.
func (r *Resolver) ThreadUpdated(ctx context.Context, thread models.Thread) Message {
	participants, err := r.dir.ThreadParticipants(ctx, thread.ID)
	if err != nil {
		r.logger.WarnContext(ctx, "participant lookup failed",
			slog.Int64("thread_id", thread.ID), slog.String("error", err.Error()))
	}

	seen := map[int64]struct{}{thread.Creator.ID: {}}
	recipients := []string{thread.Creator.Email}
	for _, u := range participants {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		recipients = append(recipients, u.Email)
	}

	status := LockStatus(thread.Locked)
	return Message{
		Kind:       KindLock,
		Subject:    fmt.Sprintf("Thread %s: %s", status, thread.Title),
		Body:       lockBody(thread.Title, status),
		Recipients: recipients,
	}
}

// LockStatus returns "locked" or "unlocked".
func LockStatus(locked bool) string {
	if locked {
		return "locked"
	}
	return "unlocked"
}

// Excerpt returns the first ExcerptLength characters of content followed
// by an ellipsis.
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > ExcerptLength {
		runes = runes[:ExcerptLength]
	}
	return string(runes) + "..."
}

// emailSet returns the distinct non-empty emails of users in input order.
func emailSet(users []models.User) []string {
	seen := make(map[string]struct{}, len(users))
	var out []string
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if _, ok := seen[u.Email]; ok {
			continue
		}
		seen[u.Email] = struct{}{}
		out = append(out, u.Email)
	}
	return out
}

func replyBody(author, title, excerpt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s replied in \"%s\":\n\n", author, title)
	b.WriteString(excerpt)
	b.WriteString("\n\nVisit the forum to read the full discussion.\n")
	return b.String()
}

func mentionBody(author, title, excerpt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s mentioned you in \"%s\":\n\n", author, title)
	b.WriteString(excerpt)
	b.WriteString("\n\nVisit the forum to join the conversation.\n")
	return b.String()
}

func lockBody(title, status string) string {
	return fmt.Sprintf("The thread \"%s\" is now %s.\n\nVisit the forum for details.\n", title, status)
}
