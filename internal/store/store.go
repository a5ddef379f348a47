package store

import (
	"context"

	"github.com/starford/agora/internal/models"
)

// Repository defines the persistence operations of the forum.
// Consumers should depend on this interface (or a narrower one) rather
// than the concrete *DB type to facilitate testing with fakes.
type Repository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsersByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	ThreadParticipants(ctx context.Context, threadID int64) ([]models.User, error)

	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCourse(ctx context.Context, c *models.Course) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	CreateResource(ctx context.Context, r *models.Resource) error
	ListResources(ctx context.Context, courseID int64) ([]models.Resource, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	AllTags(ctx context.Context) ([]models.Tag, error)
	TagBySlug(ctx context.Context, slug string) (*models.Tag, error)

	CreateThread(ctx context.Context, t *models.Thread, tagIDs []int64) error
	GetThread(ctx context.Context, id int64) (*models.Thread, error)
	UpdateThread(ctx context.Context, t *models.Thread) error
	ListThreads(ctx context.Context, limit, offset int) ([]models.Thread, int, error)
	ThreadsByTag(ctx context.Context, tagID int64) ([]models.Thread, error)
	ThreadsByTags(ctx context.Context, tagIDs []int64) ([]models.Thread, error)
	ThreadsMatchingAny(ctx context.Context, tokens []string) ([]models.Thread, error)
	ToggleThreadLike(ctx context.Context, threadID, userID int64) (bool, error)

	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, threadID int64) ([]models.Post, error)
	SoftDeletePost(ctx context.Context, id int64) error
	TogglePostLike(ctx context.Context, postID, userID int64) (bool, error)

	CreateReport(ctx context.Context, r *models.Report) error
	ListOpenReports(ctx context.Context) ([]models.Report, error)
	ResolveReport(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
