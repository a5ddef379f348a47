package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/agora/internal/forum"
)

// Handler holds API route handlers.
type Handler struct {
	svc *forum.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *forum.Service) *Handler {
	return &Handler{svc: svc}
}

// idParam parses the {id} URL parameter, writing a 400 when invalid.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return 0, false
	}
	return id, true
}

// pageParam reads ?page=; anything unparsable selects the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

// RegisterUser handles POST /api/users.
//
//	@Summary		Register a user with an institutional email
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		forum.RegisterInput	true	"User to register"
//	@Success		201		{object}	models.User
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/users [post]
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req forum.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.RegisterUser(r.Context(), req)
	if err != nil {
		writeError(w, r, "register user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), actor(r), req.Name)
	if err != nil {
		writeError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.svc.ListCourses(r.Context())
	if err != nil {
		writeError(w, r, "list courses", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(courses))
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req forum.CourseInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCourse(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, "create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	resources, err := h.svc.ListResources(r.Context(), id)
	if err != nil {
		writeError(w, r, "list resources", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(resources))
}

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req forum.ResourceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateResource(r.Context(), actor(r), id, req)
	if err != nil {
		writeError(w, r, "create resource", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tags))
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.CreateTag(r.Context(), actor(r), req.Name)
	if err != nil {
		writeError(w, r, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// ThreadsByTag handles GET /api/tags/{slug}/threads.
//
//	@Summary		List threads carrying a tag, newest first
//	@Tags			threads
//	@Produce		json
//	@Param			slug	path		string	true	"Tag slug"
//	@Param			page	query		int		false	"Page number"
//	@Success		200		{object}	TagThreadsResponse
//	@Failure		404		{object}	errResponse
//	@Router			/tags/{slug}/threads [get]
func (h *Handler) ThreadsByTag(w http.ResponseWriter, r *http.Request) {
	tag, page, err := h.svc.ThreadsByTag(r.Context(), chi.URLParam(r, "slug"), pageParam(r))
	if err != nil {
		writeError(w, r, "threads by tag", err)
		return
	}
	writeJSON(w, http.StatusOK, TagThreadsResponse{Tag: *tag, ThreadPage: page})
}

// ListThreads handles GET /api/threads.
//
//	@Summary		List threads, newest first
//	@Tags			threads
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Success		200		{object}	ThreadPage
//	@Router			/threads [get]
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListThreads(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, r, "list threads", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// FilterByTags handles GET /api/threads/filter?tags=1&tags=2.
func (h *Handler) FilterByTags(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, raw := range r.URL.Query()["tags"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid tag id"))
			return
		}
		ids = append(ids, id)
	}
	page, err := h.svc.FilterByTags(r.Context(), ids, pageParam(r))
	if err != nil {
		writeError(w, r, "filter threads", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetThread handles GET /api/threads/{id}.
//
//	@Summary		Get a thread with its posts
//	@Tags			threads
//	@Produce		json
//	@Param			id	path		int	true	"Thread ID"
//	@Success		200	{object}	forum.ThreadDetail
//	@Failure		404	{object}	errResponse
//	@Router			/threads/{id} [get]
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.GetThread(r.Context(), id)
	if err != nil {
		writeError(w, r, "get thread", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateThread handles POST /api/threads.
//
//	@Summary		Create a thread
//	@Tags			threads
//	@Accept			json
//	@Produce		json
//	@Param			body	body		forum.ThreadInput	true	"Thread to create"
//	@Success		201		{object}	models.Thread
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Router			/threads [post]
func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req forum.ThreadInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.CreateThread(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, "create thread", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateThread handles PATCH /api/threads/{id}.
func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req forum.ThreadUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.UpdateThread(r.Context(), actor(r), id, req)
	if err != nil {
		writeError(w, r, "update thread", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ToggleLock handles POST /api/threads/{id}/lock.
func (h *Handler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := h.svc.ToggleLock(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, "toggle lock", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) LikeThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	liked, err := h.svc.LikeThread(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, "like thread", err)
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{Liked: liked})
}

// CreatePost handles POST /api/threads/{id}/posts.
//
//	@Summary		Reply to a thread
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Thread ID"
//	@Param			body	body		PostRequest	true	"Post content"
//	@Success		201		{object}	models.Post
//	@Failure		403		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Router			/threads/{id}/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePost(r.Context(), actor(r), id, req.Content)
	if err != nil {
		writeError(w, r, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	liked, err := h.svc.LikePost(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, "like post", err)
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{Liked: liked})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(r.Context(), actor(r), id); err != nil {
		writeError(w, r, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReportPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rep, err := h.svc.ReportPost(r.Context(), actor(r), id, req.Reason)
	if err != nil {
		writeError(w, r, "report post", err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.ListReports(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, "list reports", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reports))
}

func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResolveReport(r.Context(), actor(r), id); err != nil {
		writeError(w, r, "resolve report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Fuzzy search over threads
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Query"
//	@Param			page	query		int		false	"Page number"
//	@Success		200		{object}	SearchResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page, err := h.svc.Search(r.Context(), q, pageParam(r))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, ThreadPage: page})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
