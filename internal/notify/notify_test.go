package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agora/internal/events"
	"github.com/starford/agora/internal/mail"
	"github.com/starford/agora/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDirectory struct {
	users        map[string]models.User
	participants map[int64][]models.User
	lookupErr    error
	partErr      error
}

func (f *fakeDirectory) UsersByUsernames(ctx context.Context, names []string) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []models.User
	for _, n := range names {
		if u, ok := f.users[n]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ThreadParticipants(ctx context.Context, threadID int64) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.partErr != nil {
		return nil, f.partErr
	}
	return f.participants[threadID], nil
}

type sent struct {
	subject    string
	body       string
	recipients []string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingSender) Send(_ context.Context, subject, body string, recipients []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{subject: subject, body: body, recipients: recipients})
}

var (
	alice = models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	bob   = models.User{ID: 2, Username: "bob", Email: "bob@example.com"}
	carol = models.User{ID: 3, Username: "carol", Email: "carol@example.com"}
	dave  = models.User{ID: 4, Username: "dave", Email: ""}
)

func newDirectory(participants ...models.User) *fakeDirectory {
	return &fakeDirectory{
		users: map[string]models.User{
			"alice": alice, "bob": bob, "carol": carol, "dave": dave,
		},
		participants: map[int64][]models.User{10: participants},
	}
}

func thread(creator models.User) models.Thread {
	return models.Thread{ID: 10, Title: "Midsem schedule", Creator: creator}
}

func TestPostCreated_ReplyGoesToCreatorAndParticipants(t *testing.T) {
	// alice replies in bob's thread where carol posted before.
	r := NewResolver(newDirectory(carol, alice), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ID: 1, ThreadID: 10, Author: alice, Content: "see you there"}, thread(bob))

	require.Len(t, msgs, 1)
	assert.Equal(t, KindReply, msgs[0].Kind)
	assert.Equal(t, "New reply in: Midsem schedule", msgs[0].Subject)
	assert.ElementsMatch(t, []string{"bob@example.com", "carol@example.com"}, msgs[0].Recipients)
	assert.NotContains(t, msgs[0].Recipients, "alice@example.com")
}

func TestPostCreated_EmptyEmailsFilteredFromReply(t *testing.T) {
	r := NewResolver(newDirectory(dave, carol), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "hi"}, thread(bob))

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, msgs[0].Recipients)
}

func TestPostCreated_MentionedParticipantExcludedFromReply(t *testing.T) {
	r := NewResolver(newDirectory(carol), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "@carol thanks"}, thread(bob))

	require.Len(t, msgs, 2)
	assert.Equal(t, KindReply, msgs[0].Kind)
	assert.Equal(t, []string{"bob@example.com"}, msgs[0].Recipients)

	assert.Equal(t, KindMention, msgs[1].Kind)
	assert.Equal(t, "You were mentioned in 'Midsem schedule'", msgs[1].Subject)
	assert.Equal(t, []string{"carol@example.com"}, msgs[1].Recipients)
}

func TestPostCreated_MentionedCreatorGetsBoth(t *testing.T) {
	r := NewResolver(newDirectory(), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "@bob @bob ping"}, thread(bob))

	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"bob@example.com"}, msgs[0].Recipients)
	assert.Equal(t, KindMention, msgs[1].Kind)
	assert.Equal(t, []string{"bob@example.com"}, msgs[1].Recipients)
}

func TestPostCreated_NoMentionForAuthorOrBlankEmail(t *testing.T) {
	r := NewResolver(newDirectory(), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "@alice @dave @nobody"}, thread(bob))

	require.Len(t, msgs, 1)
	assert.Equal(t, KindReply, msgs[0].Kind)
}

func TestPostCreated_AuthorIsCreator(t *testing.T) {
	r := NewResolver(newDirectory(alice), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "bump"}, thread(alice))

	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Recipients)
}

func TestPostCreated_BodyExcerpt(t *testing.T) {
	long := strings.Repeat("é", 400)
	r := NewResolver(newDirectory(), discardLogger())
	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: long}, thread(bob))

	body := msgs[0].Body
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "Midsem schedule")
	assert.Contains(t, body, strings.Repeat("é", 300)+"...")
	assert.NotContains(t, body, strings.Repeat("é", 301))
}

func TestPostCreated_DirectoryErrorsDegrade(t *testing.T) {
	dir := newDirectory(carol)
	dir.lookupErr = errors.New("db down")
	dir.partErr = errors.New("db down")
	r := NewResolver(dir, discardLogger())

	msgs := r.PostCreated(context.Background(),
		models.Post{ThreadID: 10, Author: alice, Content: "@carol hi"}, thread(bob))

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"bob@example.com"}, msgs[0].Recipients)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short...", Excerpt("short"))
	assert.Equal(t, strings.Repeat("a", 300)+"...", Excerpt(strings.Repeat("a", 301)))
}

func TestThreadUpdated_CreatorAndParticipants(t *testing.T) {
	r := NewResolver(newDirectory(carol, bob, dave), discardLogger())
	th := thread(bob)
	th.Locked = true
	msg := r.ThreadUpdated(context.Background(), th)

	assert.Equal(t, KindLock, msg.Kind)
	assert.Equal(t, "Thread locked: Midsem schedule", msg.Subject)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com", ""}, msg.Recipients)

	th.Locked = false
	msg = r.ThreadUpdated(context.Background(), th)
	assert.Equal(t, "Thread unlocked: Midsem schedule", msg.Subject)
}

func TestHooks_EverySaveNotifiesEvenWithoutLockChange(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(carol), discardLogger()), sender, LockEverySave, discardLogger())

	th := thread(bob)
	th.Locked = true
	th.Title = "Edited title"
	h.Handle(context.Background(), events.ThreadUpdated{Thread: th, PreviouslyLocked: true})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Thread locked: Edited title", sender.sent[0].subject)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, sender.sent[0].recipients)
}

func TestHooks_OnChangeNotifiesOnlyOnToggle(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(), discardLogger()), sender, LockOnChange, discardLogger())

	th := thread(bob)
	th.Locked = true
	h.Handle(context.Background(), events.ThreadUpdated{Thread: th, PreviouslyLocked: true})
	assert.Empty(t, sender.sent)

	h.Handle(context.Background(), events.ThreadUpdated{Thread: th, PreviouslyLocked: false})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Thread locked: Midsem schedule", sender.sent[0].subject)
}

func TestHooks_PostCreatedSendsReplyBeforeMentions(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(carol), discardLogger()), sender, "", discardLogger())

	h.Handle(context.Background(), events.PostCreated{
		Post:   models.Post{ThreadID: 10, Author: alice, Content: "@carol look"},
		Thread: thread(bob),
	})

	require.Len(t, sender.sent, 2)
	assert.True(t, strings.HasPrefix(sender.sent[0].subject, "New reply in:"))
	assert.True(t, strings.HasPrefix(sender.sent[1].subject, "You were mentioned in"))
}

func TestHooks_CancelledRequestStillResolvesRecipients(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(carol), discardLogger()), sender, "", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Handle(ctx, events.PostCreated{
		Post:   models.Post{ThreadID: 10, Author: alice, Content: "@carol look"},
		Thread: thread(bob),
	})

	require.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"bob@example.com"}, sender.sent[0].recipients)
	assert.Equal(t, []string{"carol@example.com"}, sender.sent[1].recipients)
}

func TestHooks_CancelledRequestStillNotifiesLockParticipants(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(carol), discardLogger()), sender, LockEverySave, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	th := thread(bob)
	th.Locked = true
	h.Handle(ctx, events.ThreadUpdated{Thread: th})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, sender.sent[0].recipients)
}

func TestHooks_ThreadCreatedIsIgnored(t *testing.T) {
	sender := &recordingSender{}
	h := NewHooks(NewResolver(newDirectory(), discardLogger()), sender, LockEverySave, discardLogger())
	h.Handle(context.Background(), events.ThreadCreated{Thread: thread(bob)})
	assert.Empty(t, sender.sent)
}

func TestParseLockPolicy(t *testing.T) {
	p, err := ParseLockPolicy("")
	require.NoError(t, err)
	assert.Equal(t, LockEverySave, p)

	p, err = ParseLockPolicy("on_change")
	require.NoError(t, err)
	assert.Equal(t, LockOnChange, p)

	_, err = ParseLockPolicy("sometimes")
	assert.Error(t, err)
}

type fakeTransport struct {
	mu    sync.Mutex
	calls []mail.Message
	err   error
	block chan struct{}
	panic bool
}

func (f *fakeTransport) Deliver(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	f.calls = append(f.calls, msg)
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestDispatcher_DedupesRecipients(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, DispatcherConfig{From: "forum@example.com"}, discardLogger())

	d.Send(context.Background(), "s", "b", []string{"a@x", "b@x", "a@x", "", ""})

	require.Equal(t, 1, tr.callCount())
	assert.Equal(t, []string{"a@x", "b@x", ""}, tr.calls[0].To)
	assert.Equal(t, "forum@example.com", tr.calls[0].From)
}

func TestDispatcher_EmptyIsNoop(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, DispatcherConfig{}, discardLogger())
	d.Send(context.Background(), "s", "b", nil)
	assert.Equal(t, 0, tr.callCount())
}

func TestDispatcher_SwallowsTransportErrors(t *testing.T) {
	tr := &fakeTransport{err: errors.New("smtp 550")}
	d := NewDispatcher(tr, DispatcherConfig{FailureThreshold: 100}, discardLogger())
	assert.NotPanics(t, func() {
		d.Send(context.Background(), "s", "b", []string{"a@x"})
	})
	assert.Equal(t, 1, tr.callCount())
}

func TestDispatcher_RecoversTransportPanic(t *testing.T) {
	tr := &fakeTransport{panic: true}
	d := NewDispatcher(tr, DispatcherConfig{}, discardLogger())
	assert.NotPanics(t, func() {
		d.Send(context.Background(), "s", "b", []string{"a@x"})
	})
}

func TestDispatcher_BoundsStalledTransport(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	defer close(tr.block)
	d := NewDispatcher(tr, DispatcherConfig{Timeout: 20 * time.Millisecond}, discardLogger())

	start := time.Now()
	d.Send(context.Background(), "s", "b", []string{"a@x"})
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDispatcher_CancelledCallerStillDelivers(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, DispatcherConfig{}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Send(ctx, "s", "b", []string{"a@x"})
	assert.Equal(t, 1, tr.callCount())
}

func TestDispatcher_BreakerShortCircuitsFailingTransport(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	d := NewDispatcher(tr, DispatcherConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, discardLogger())

	for range 5 {
		d.Send(context.Background(), "s", "b", []string{"a@x"})
	}
	assert.Equal(t, 2, tr.callCount())
}

func TestDispatcher_WithHooksNeverFailsCaller(t *testing.T) {
	var delivered atomic.Int32
	tr := transportFunc(func(context.Context, mail.Message) error {
		delivered.Add(1)
		return errors.New("down")
	})
	d := NewDispatcher(tr, DispatcherConfig{FailureThreshold: 100}, discardLogger())
	h := NewHooks(NewResolver(newDirectory(carol), discardLogger()), d, LockEverySave, discardLogger())

	bus := events.NewBus(discardLogger())
	bus.Subscribe(h.Handle)
	bus.Publish(context.Background(), events.PostCreated{
		Post:   models.Post{ThreadID: 10, Author: alice, Content: "@carol hi"},
		Thread: thread(bob),
	})
	assert.Equal(t, int32(2), delivered.Load())
}

type transportFunc func(context.Context, mail.Message) error

func (f transportFunc) Deliver(ctx context.Context, msg mail.Message) error { return f(ctx, msg) }
