package forum

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/models"
)

// CreateCategory adds a category. Staff only.
func (s *Service) CreateCategory(ctx context.Context, actor models.User, name string) (*models.Category, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(1, 100)); err != nil {
		return nil, validation.Errors{"name": err}
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

// CourseInput describes a course to add.
type CourseInput struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
}

func (in CourseInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(1, 20)),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Department, validation.Length(0, 100)),
	)
}

// CreateCourse adds a course with a unique code. Staff only.
func (s *Service) CreateCourse(ctx context.Context, actor models.User, in CourseInput) (*models.Course, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	in.Code = strings.TrimSpace(in.Code)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &models.Course{Code: in.Code, Title: in.Title, Department: in.Department}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCourses(ctx context.Context) ([]models.Course, error) {
	return s.repo.ListCourses(ctx)
}

// ResourceInput describes study material to publish under a course.
type ResourceInput struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

func (in ResourceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 600)),
		validation.Field(&in.Type, validation.Required,
			validation.In(models.ResourcePDF, models.ResourceVideo, models.ResourceLink)),
		validation.Field(&in.URL, validation.Required, is.URL),
	)
}

// CreateResource adds a resource to a course. Staff only.
func (s *Service) CreateResource(ctx context.Context, actor models.User, courseID int64, in ResourceInput) (*models.Resource, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.URL = strings.TrimSpace(in.URL)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r := &models.Resource{CourseID: courseID, Title: in.Title, Type: in.Type, URL: in.URL}
	if err := s.repo.CreateResource(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListResources returns the resources of a course; an unknown course is
// apperr.ErrNotFound.
func (s *Service) ListResources(ctx context.Context, courseID int64) ([]models.Resource, error) {
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListResources(ctx, courseID)
}

// CreateTag adds a tag. Staff only.
func (s *Service) CreateTag(ctx context.Context, actor models.User, name string) (*models.Tag, error) {
	if !actor.IsStaff {
		return nil, apperr.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(1, 50)); err != nil {
		return nil, validation.Errors{"name": err}
	}
	return s.repo.CreateTag(ctx, name)
}

func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.repo.AllTags(ctx)
}
