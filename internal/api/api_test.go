package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/forum"
	"github.com/starford/agora/internal/models"
	"github.com/starford/agora/internal/ratelimit"
	"github.com/starford/agora/internal/store"
	"github.com/starford/agora/internal/testutil"
)

// testEnv sets up a temp SQLite DB, forum service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string, opts ...forum.Option) (*store.DB, http.Handler) {
	t.Helper()
	db := testutil.TestDB(t)
	opts = append([]forum.Option{forum.WithLogger(testutil.Logger())}, opts...)
	svc := forum.NewService(db, nil, opts...)
	router := NewRouter(svc, RouterConfig{AuthEnabled: authToken != "", Token: authToken})
	return db, router
}

// do sends a request as user (empty for anonymous) with an optional JSON body.
func do(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(ActorHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestRegisterUser(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/users", "", map[string]any{
		"username": "alice", "email": "alice@example.com", "is_staff": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	u := decode[models.User](t, w)
	if u.ID == 0 || u.Username != "alice" {
		t.Errorf("user = %+v", u)
	}
	if u.IsStaff {
		t.Error("staff flag must not be settable on sign-up")
	}

	w = do(t, router, http.MethodPost, "/users", "", map[string]string{"username": "alice", "email": "other@example.com"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d, want 409", w.Code)
	}
}

func TestRegisterUser_EmailRejected(t *testing.T) {
	policy, err := forum.NewEmailPolicy("pilani.bits-pilani.ac.in", `^f(?P<year>\d{4})\d{4}$`, 2015, 2030)
	if err != nil {
		t.Fatal(err)
	}
	_, router := testEnv(t, "", forum.WithEmailPolicy(policy))

	w := do(t, router, http.MethodPost, "/users", "", map[string]string{"username": "bob", "email": "bob@gmail.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("foreign domain = %d, want 400", w.Code)
	}
}

func TestActorRequired(t *testing.T) {
	_, router := testEnv(t, "")
	body := map[string]string{"title": "Hi", "content": "there"}

	if w := do(t, router, http.MethodPost, "/threads", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("no actor = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/threads", "ghost", body); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown actor = %d, want 401", w.Code)
	}
}

func TestThreadLifecycle(t *testing.T) {
	db, router := testEnv(t, "")
	testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "bob", false)
	tag := testutil.SeedTag(t, db, "Data Structures")

	w := do(t, router, http.MethodPost, "/threads", "alice", map[string]any{
		"title": "Heaps", "content": "how do heaps work", "tag_ids": []int64{tag.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	th := decode[models.Thread](t, w)
	if len(th.Tags) != 1 || th.Tags[0].Slug != "data-structures" {
		t.Errorf("tags = %+v", th.Tags)
	}

	w = do(t, router, http.MethodPost, fmt.Sprintf("/threads/%d/posts", th.ID), "bob", PostRequest{Content: "@alice like a tree"})
	if w.Code != http.StatusCreated {
		t.Fatalf("post status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, fmt.Sprintf("/threads/%d", th.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	detail := decode[forum.ThreadDetail](t, w)
	if detail.Title != "Heaps" || len(detail.Posts) != 1 || detail.Posts[0].Author.Username != "bob" {
		t.Errorf("detail = %+v", detail)
	}

	like := fmt.Sprintf("/threads/%d/like", th.ID)
	if got := decode[LikeResponse](t, do(t, router, http.MethodPost, like, "bob", nil)); !got.Liked {
		t.Error("first like should set liked")
	}
	if got := decode[LikeResponse](t, do(t, router, http.MethodPost, like, "bob", nil)); got.Liked {
		t.Error("second like should unset liked")
	}

	w = do(t, router, http.MethodGet, "/tags/data-structures/threads", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tag threads = %d", w.Code)
	}
	byTag := decode[TagThreadsResponse](t, w)
	if byTag.Tag.ID != tag.ID || byTag.Total != 1 {
		t.Errorf("by tag = %+v", byTag)
	}
}

func TestUpdateThread_Permissions(t *testing.T) {
	db, router := testEnv(t, "")
	alice := testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "bob", false)
	testutil.SeedUser(t, db, "mod", true)
	th := testutil.SeedThread(t, db, alice, "Old", "body")
	path := fmt.Sprintf("/threads/%d", th.ID)

	if w := do(t, router, http.MethodPatch, path, "bob", map[string]string{"title": "Hijack"}); w.Code != http.StatusForbidden {
		t.Errorf("other user edit = %d, want 403", w.Code)
	}
	w := do(t, router, http.MethodPatch, path, "alice", map[string]string{"title": "New"})
	if w.Code != http.StatusOK {
		t.Fatalf("owner edit = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Thread](t, w); got.Title != "New" || got.Content != "body" {
		t.Errorf("updated = %+v", got)
	}
	if w := do(t, router, http.MethodPatch, path, "mod", map[string]string{"content": "moderated"}); w.Code != http.StatusOK {
		t.Errorf("staff edit = %d, want 200", w.Code)
	}
}

func TestLockedThread(t *testing.T) {
	db, router := testEnv(t, "")
	alice := testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "mod", true)
	th := testutil.SeedThread(t, db, alice, "Midsem", "dates?")
	lock := fmt.Sprintf("/threads/%d/lock", th.ID)

	if w := do(t, router, http.MethodPost, lock, "alice", nil); w.Code != http.StatusForbidden {
		t.Errorf("non-staff lock = %d, want 403", w.Code)
	}
	w := do(t, router, http.MethodPost, lock, "mod", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lock = %d", w.Code)
	}
	if !decode[models.Thread](t, w).Locked {
		t.Fatal("thread should be locked")
	}

	w = do(t, router, http.MethodPost, fmt.Sprintf("/threads/%d/posts", th.ID), "alice", PostRequest{Content: "late"})
	if w.Code != http.StatusForbidden {
		t.Errorf("post on locked = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodPost, fmt.Sprintf("/threads/%d/like", th.ID), "alice", nil); w.Code != http.StatusForbidden {
		t.Errorf("like locked = %d, want 403", w.Code)
	}
}

func TestCreateThread_Validation(t *testing.T) {
	db, router := testEnv(t, "")
	testutil.SeedUser(t, db, "alice", false)

	w := do(t, router, http.MethodPost, "/threads", "alice", map[string]string{"title": "  ", "content": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid thread = %d, want 400", w.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Fields["title"] == "" || body.Fields["content"] == "" {
		t.Errorf("fields = %v", body.Fields)
	}

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString("{not json"))
	req.Header.Set(ActorHeader, "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", rec.Code)
	}
}

func TestCreateThread_RateLimited(t *testing.T) {
	limits := map[ratelimit.Action]ratelimit.Limit{
		ratelimit.ActionThreadCreate: {Requests: 1, Window: time.Hour},
	}
	db, router := testEnv(t, "", forum.WithRateLimiter(ratelimit.New(limits)))
	testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "mod", true)
	body := map[string]string{"title": "Q", "content": "?"}

	if w := do(t, router, http.MethodPost, "/threads", "alice", body); w.Code != http.StatusCreated {
		t.Fatalf("first = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/threads", "alice", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("second = %d, want 429", w.Code)
	}
	for range 3 {
		if w := do(t, router, http.MethodPost, "/threads", "mod", body); w.Code != http.StatusCreated {
			t.Errorf("staff = %d, want 201", w.Code)
		}
	}
}

func TestPostModeration(t *testing.T) {
	db, router := testEnv(t, "")
	alice := testutil.SeedUser(t, db, "alice", false)
	bob := testutil.SeedUser(t, db, "bob", false)
	testutil.SeedUser(t, db, "mod", true)
	th := testutil.SeedThread(t, db, alice, "Labs", "where")
	p := testutil.SeedPost(t, db, bob, th.ID, "buy cheap notes")

	w := do(t, router, http.MethodPost, fmt.Sprintf("/posts/%d/report", p.ID), "alice", ReportRequest{Reason: "spam"})
	if w.Code != http.StatusCreated {
		t.Fatalf("report = %d, body = %s", w.Code, w.Body.String())
	}
	report := decode[models.Report](t, w)

	if w := do(t, router, http.MethodGet, "/reports", "alice", nil); w.Code != http.StatusForbidden {
		t.Errorf("non-staff reports = %d, want 403", w.Code)
	}
	w = do(t, router, http.MethodGet, "/reports", "mod", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reports = %d", w.Code)
	}
	if got := decode[[]models.Report](t, w); len(got) != 1 || got[0].Reason != "spam" {
		t.Errorf("reports = %+v", got)
	}

	if w := do(t, router, http.MethodDelete, fmt.Sprintf("/posts/%d", p.ID), "alice", nil); w.Code != http.StatusForbidden {
		t.Errorf("delete others = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodDelete, fmt.Sprintf("/posts/%d", p.ID), "mod", nil); w.Code != http.StatusNoContent {
		t.Errorf("staff delete = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodPost, fmt.Sprintf("/posts/%d/like", p.ID), "alice", nil); w.Code != http.StatusForbidden {
		t.Errorf("like deleted = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodPost, fmt.Sprintf("/reports/%d/resolve", report.ID), "mod", nil); w.Code != http.StatusNoContent {
		t.Errorf("resolve = %d, want 204", w.Code)
	}
}

func TestTaxonomy_StaffOnly(t *testing.T) {
	db, router := testEnv(t, "")
	testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "mod", true)

	if w := do(t, router, http.MethodPost, "/tags", "alice", NameRequest{Name: "exams"}); w.Code != http.StatusForbidden {
		t.Errorf("non-staff tag = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/tags", "mod", NameRequest{Name: "exams"}); w.Code != http.StatusCreated {
		t.Errorf("staff tag = %d, want 201", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/categories", "mod", NameRequest{Name: "Academics"}); w.Code != http.StatusCreated {
		t.Errorf("staff category = %d, want 201", w.Code)
	}
	w := do(t, router, http.MethodPost, "/courses", "mod", map[string]string{
		"code": "CS F211", "title": "Data Structures and Algorithms", "department": "CS",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("staff course = %d, body = %s", w.Code, w.Body.String())
	}

	if got := decode[[]models.Tag](t, do(t, router, http.MethodGet, "/tags", "", nil)); len(got) != 1 {
		t.Errorf("tags = %+v", got)
	}
	if got := decode[[]models.Category](t, do(t, router, http.MethodGet, "/categories", "", nil)); len(got) != 1 {
		t.Errorf("categories = %+v", got)
	}
	if got := decode[[]models.Course](t, do(t, router, http.MethodGet, "/courses", "", nil)); len(got) != 1 {
		t.Errorf("courses = %+v", got)
	}
}

func TestCourseResources(t *testing.T) {
	db, router := testEnv(t, "")
	alice := testutil.SeedUser(t, db, "alice", false)
	testutil.SeedUser(t, db, "mod", true)

	w := do(t, router, http.MethodPost, "/courses", "mod", map[string]string{"code": "CS F111", "title": "Computer Programming"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create course = %d, body = %s", w.Code, w.Body.String())
	}
	course := decode[models.Course](t, w)
	path := fmt.Sprintf("/courses/%d/resources", course.ID)
	notes := map[string]string{"title": "Lecture notes", "type": "pdf", "url": "https://example.com/notes.pdf"}

	if w := do(t, router, http.MethodPost, path, "alice", notes); w.Code != http.StatusForbidden {
		t.Errorf("non-staff resource = %d, want 403", w.Code)
	}
	bad := map[string]string{"title": "Slides", "type": "PPT", "url": "https://example.com/s"}
	if w := do(t, router, http.MethodPost, path, "mod", bad); w.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/courses/999/resources", "mod", notes); w.Code != http.StatusNotFound {
		t.Errorf("missing course = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodPost, path, "mod", notes)
	if w.Code != http.StatusCreated {
		t.Fatalf("staff resource = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[models.Resource](t, w)
	if res.Type != models.ResourcePDF || res.CourseID != course.ID {
		t.Errorf("resource = %+v", res)
	}

	got := decode[[]models.Resource](t, do(t, router, http.MethodGet, path, "", nil))
	if len(got) != 1 || got[0].ID != res.ID {
		t.Errorf("resources = %+v", got)
	}
	if w := do(t, router, http.MethodGet, "/courses/999/resources", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing course list = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodPost, "/threads", alice.Username, map[string]any{
		"title": "Notes for lab 2", "content": "see attached",
		"course_ids": []int64{course.ID}, "resource_ids": []int64{res.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create thread = %d, body = %s", w.Code, w.Body.String())
	}
	th := decode[models.Thread](t, w)
	if len(th.ResourceIDs) != 1 || th.ResourceIDs[0] != res.ID {
		t.Errorf("thread resource_ids = %v", th.ResourceIDs)
	}
}

func TestListThreads_Pagination(t *testing.T) {
	db, router := testEnv(t, "", forum.WithPageSize(2))
	u := testutil.SeedUser(t, db, "alice", false)
	for i := range 5 {
		testutil.SeedThread(t, db, u, fmt.Sprintf("T%d", i), "x")
	}

	page := decode[ThreadPage](t, do(t, router, http.MethodGet, "/threads?page=2", "", nil))
	if page.Page != 2 || len(page.Items) != 2 || page.TotalPages != 3 || !page.HasNext || !page.HasPrev {
		t.Errorf("page 2 = %+v", page)
	}
	page = decode[ThreadPage](t, do(t, router, http.MethodGet, "/threads?page=99", "", nil))
	if page.Page != 3 || len(page.Items) != 1 || page.Items[0].Title != "T0" {
		t.Errorf("clamped page = %+v", page)
	}
	page = decode[ThreadPage](t, do(t, router, http.MethodGet, "/threads?page=abc", "", nil))
	if page.Page != 1 || page.Items[0].Title != "T4" {
		t.Errorf("bad page param = %+v", page)
	}
}

func TestFilterByTags(t *testing.T) {
	db, router := testEnv(t, "")
	u := testutil.SeedUser(t, db, "alice", false)
	a := testutil.SeedTag(t, db, "a")
	b := testutil.SeedTag(t, db, "b")
	testutil.SeedThread(t, db, u, "both", "x", a.ID, b.ID)
	testutil.SeedThread(t, db, u, "only b", "x", b.ID)
	testutil.SeedThread(t, db, u, "none", "x")

	w := do(t, router, http.MethodGet, fmt.Sprintf("/threads/filter?tags=%d&tags=%d", a.ID, b.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("filter = %d", w.Code)
	}
	if page := decode[ThreadPage](t, w); page.Total != 2 {
		t.Errorf("filter total = %d, want 2", page.Total)
	}
	if w := do(t, router, http.MethodGet, "/threads/filter?tags=x", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad tag id = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	db, router := testEnv(t, "")
	u := testutil.SeedUser(t, db, "alice", false)
	testutil.SeedThread(t, db, u, "Schedule question", "when is the midsem")
	title := testutil.SeedThread(t, db, u, "Midsem", "dates please")
	testutil.SeedThread(t, db, u, "Hostel food", "mess menu")

	w := do(t, router, http.MethodGet, "/search?q=midsem", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	res := decode[SearchResponse](t, w)
	if res.Query != "midsem" || res.Total != 2 || res.Items[0].ID != title.ID {
		t.Errorf("search = %+v", res)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/search", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty search = %d, want 200", w.Code)
	}
	if res := decode[SearchResponse](t, w); res.Total != 0 || res.Items == nil {
		t.Errorf("empty search = %+v", res)
	}
}

func TestGetThread_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/threads/999", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing thread = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/threads/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/tags/nope/threads", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing tag = %d, want 404", w.Code)
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("create tag: %w", apperr.ErrAlreadyExists), http.StatusConflict},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrInvalidEmail, http.StatusBadRequest},
		{apperr.ErrLocked, http.StatusForbidden},
		{apperr.ErrDeleted, http.StatusForbidden},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), "op", tc.err)
		if w.Code != tc.want {
			t.Errorf("writeError(%v) = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// testEnvWithSSE creates a router with a stub SSE handler that blocks until
// the request context is done.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := forum.NewService(testutil.TestDB(t), nil, forum.WithLogger(testutil.Logger()))
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, RouterConfig{AuthEnabled: authEnabled, Token: token, SSE: sseHandler})
}
