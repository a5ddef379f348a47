package forum

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/events"
	"github.com/starford/agora/internal/models"
	"github.com/starford/agora/internal/ratelimit"
)

// ThreadInput is the body of a new thread.
type ThreadInput struct {
	CategoryID  int64   `json:"category_id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	TagIDs      []int64 `json:"tag_ids"`
	CourseIDs   []int64 `json:"course_ids"`
	ResourceIDs []int64 `json:"resource_ids"`
}

func (in ThreadInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Required),
	)
}

// ThreadUpdate carries the editable fields; nil leaves a field unchanged.
type ThreadUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (in ThreadUpdate) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.NilOrNotEmpty),
	)
}

// ThreadDetail is a thread with its posts, newest first.
type ThreadDetail struct {
	models.Thread
	Posts []models.Post `json:"posts"`
}

// CreateThread persists a new thread and publishes ThreadCreated.
func (s *Service) CreateThread(ctx context.Context, actor models.User, in ThreadInput) (*models.Thread, error) {
	if !s.limiter.Allow(actor, ratelimit.ActionThreadCreate) {
		return nil, apperr.ErrRateLimited
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t := &models.Thread{
		CategoryID:  in.CategoryID,
		Creator:     actor,
		Title:       in.Title,
		Content:     in.Content,
		CourseIDs:   in.CourseIDs,
		ResourceIDs: in.ResourceIDs,
	}
	if err := s.repo.CreateThread(ctx, t, in.TagIDs); err != nil {
		return nil, err
	}
	created, err := s.repo.GetThread(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ThreadCreated{Thread: *created})
	return created, nil
}

// GetThread returns a thread and all of its posts.
func (s *Service) GetThread(ctx context.Context, id int64) (*ThreadDetail, error) {
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.repo.ListPosts(ctx, id)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return &ThreadDetail{Thread: *t, Posts: posts}, nil
}

// ListThreads returns a page of threads, newest first.
func (s *Service) ListThreads(ctx context.Context, page int) (Page[models.Thread], error) {
	if page < 1 {
		page = 1
	}
	threads, total, err := s.repo.ListThreads(ctx, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return Page[models.Thread]{}, err
	}
	if clamped, _ := clampPage(page, s.pageSize, total); clamped != page {
		page = clamped
		threads, total, err = s.repo.ListThreads(ctx, s.pageSize, (page-1)*s.pageSize)
		if err != nil {
			return Page[models.Thread]{}, err
		}
	}
	return newPage(threads, page, s.pageSize, total), nil
}

// UpdateThread edits a thread. Only its creator or staff may edit. Every
// successful save publishes ThreadUpdated, including saves of locked
// threads.
func (s *Service) UpdateThread(ctx context.Context, actor models.User, id int64, in ThreadUpdate) (*models.Thread, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != t.Creator.ID && !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		t.Content = *in.Content
	}
	return s.saveThread(ctx, t, t.Locked)
}

// ToggleLock flips the lock flag. Staff only.
func (s *Service) ToggleLock(ctx context.Context, actor models.User, id int64) (*models.Thread, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := t.Locked
	t.Locked = !t.Locked
	return s.saveThread(ctx, t, prev)
}

func (s *Service) saveThread(ctx context.Context, t *models.Thread, previouslyLocked bool) (*models.Thread, error) {
	if err := s.repo.UpdateThread(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ThreadUpdated{Thread: *t, PreviouslyLocked: previouslyLocked})
	return t, nil
}

// LikeThread toggles the actor's like. Locked threads cannot be liked.
func (s *Service) LikeThread(ctx context.Context, actor models.User, id int64) (bool, error) {
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return false, err
	}
	if t.Locked {
		return false, apperr.ErrLocked
	}
	return s.repo.ToggleThreadLike(ctx, id, actor.ID)
}

// ThreadsByTag returns the tag and a page of its threads, newest first.
func (s *Service) ThreadsByTag(ctx context.Context, slug string, page int) (*models.Tag, Page[models.Thread], error) {
	tag, err := s.repo.TagBySlug(ctx, slug)
	if err != nil {
		return nil, Page[models.Thread]{}, err
	}
	threads, err := s.repo.ThreadsByTag(ctx, tag.ID)
	if err != nil {
		return nil, Page[models.Thread]{}, err
	}
	return tag, paginate(threads, page, s.pageSize), nil
}

// FilterByTags returns a page of the distinct threads carrying any of the
// tags, newest first. No tags yields an empty page.
func (s *Service) FilterByTags(ctx context.Context, tagIDs []int64, page int) (Page[models.Thread], error) {
	threads, err := s.repo.ThreadsByTags(ctx, tagIDs)
	if err != nil {
		return Page[models.Thread]{}, err
	}
	return paginate(threads, page, s.pageSize), nil
}

// Search returns a page of ranked results. A blank query yields an empty
// page.
func (s *Service) Search(ctx context.Context, query string, page int) (Page[models.Thread], error) {
	ranked, err := s.search.Search(ctx, query)
	if err != nil {
		return Page[models.Thread]{}, err
	}
	return paginate(ranked, page, s.pageSize), nil
}

// SearchAll returns the full ranked result list.
func (s *Service) SearchAll(ctx context.Context, query string) ([]models.Thread, error) {
	return s.search.Search(ctx, query)
}
