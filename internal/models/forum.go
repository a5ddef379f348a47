// Package models defines the domain types for Agora.
package models

import "time"

// User is a forum member. Email may be empty for accounts created
// outside the signup flow.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsStaff     bool   `json:"is_staff"`
}

// Category groups threads at the top level.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Course is a university course a thread can be attached to.
type Course struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
}

// Resource types.
const (
	ResourcePDF   = "PDF"
	ResourceVideo = "VIDEO"
	ResourceLink  = "LINK"
)

// Resource is study material published under a course.
type Resource struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

// Tag is a free-form label; Slug is derived from Name.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Thread is a top-level discussion.
type Thread struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	Creator     User      `json:"creator"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Locked      bool      `json:"locked"`
	Tags        []Tag     `json:"tags"`
	CourseIDs   []int64   `json:"course_ids,omitempty"`
	ResourceIDs []int64   `json:"resource_ids,omitempty"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasTag reports whether the thread carries the tag with the given id.
func (t *Thread) HasTag(id int64) bool {
	for _, tag := range t.Tags {
		if tag.ID == id {
			return true
		}
	}
	return false
}

// Post is a reply inside a thread.
type Post struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Deleted   bool      `json:"deleted"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Report flags a post for moderator review.
type Report struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	ReportedBy User      `json:"reported_by"`
	Reason     string    `json:"reason"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
}
