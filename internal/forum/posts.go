package forum

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/events"
	"github.com/starford/agora/internal/models"
	"github.com/starford/agora/internal/ratelimit"
)

// CreatePost adds a reply and publishes PostCreated. Locked threads
// reject new posts.
func (s *Service) CreatePost(ctx context.Context, actor models.User, threadID int64, content string) (*models.Post, error) {
	t, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t.Locked {
		return nil, apperr.ErrLocked
	}
	if !s.limiter.Allow(actor, ratelimit.ActionPostCreate) {
		return nil, apperr.ErrRateLimited
	}
	if err := validation.Validate(strings.TrimSpace(content), validation.Required); err != nil {
		return nil, validation.Errors{"content": err}
	}

	p := &models.Post{ThreadID: threadID, Author: actor, Content: content}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, events.PostCreated{Post: *p, Thread: *t})
	return p, nil
}

// LikePost toggles the actor's like. Deleted posts cannot be liked.
func (s *Service) LikePost(ctx context.Context, actor models.User, postID int64) (bool, error) {
	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if p.Deleted {
		return false, apperr.ErrDeleted
	}
	return s.repo.TogglePostLike(ctx, postID, actor.ID)
}

// DeletePost soft-deletes a post. Its author or staff may delete, except
// in locked threads.
func (s *Service) DeletePost(ctx context.Context, actor models.User, postID int64) error {
	p, t, err := s.postWithThread(ctx, postID)
	if err != nil {
		return err
	}
	if t.Locked {
		return apperr.ErrLocked
	}
	if actor.ID != p.Author.ID && !actor.IsStaff {
		return apperr.ErrForbidden
	}
	return s.repo.SoftDeletePost(ctx, postID)
}

// ReportPost files a moderation report against a post.
func (s *Service) ReportPost(ctx context.Context, actor models.User, postID int64, reason string) (*models.Report, error) {
	p, t, err := s.postWithThread(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, apperr.ErrDeleted
	}
	if t.Locked {
		return nil, apperr.ErrLocked
	}
	if !s.limiter.Allow(actor, ratelimit.ActionReport) {
		return nil, apperr.ErrRateLimited
	}
	reason = strings.TrimSpace(reason)
	if err := validation.Validate(reason, validation.Required, validation.Length(1, 1000)); err != nil {
		return nil, validation.Errors{"reason": err}
	}

	r := &models.Report{PostID: postID, ReportedBy: actor, Reason: reason}
	if err := s.repo.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "post reported", slog.Int64("post_id", postID), slog.Int64("report_id", r.ID))
	return r, nil
}

// ListReports returns unresolved reports. Staff only.
func (s *Service) ListReports(ctx context.Context, actor models.User) ([]models.Report, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	reports, err := s.repo.ListOpenReports(ctx)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ResolveReport closes a report. Staff only.
func (s *Service) ResolveReport(ctx context.Context, actor models.User, id int64) error {
	if !actor.IsStaff {
		return apperr.ErrForbidden
	}
	return s.repo.ResolveReport(ctx, id)
}

func (s *Service) postWithThread(ctx context.Context, postID int64) (*models.Post, *models.Thread, error) {
	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.repo.GetThread(ctx, p.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return p, t, nil
}
