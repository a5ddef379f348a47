package api

import (
	"github.com/starford/agora/internal/forum"
	"github.com/starford/agora/internal/models"
)

// NameRequest is the body for creating a category or tag.
type NameRequest struct {
	Name string `json:"name" example:"Academics" validate:"required"`
}

// PostRequest is the body for a new post.
type PostRequest struct {
	Content string `json:"content" example:"@alice the lab is in room 2201" validate:"required"`
}

// ReportRequest is the body for reporting a post.
type ReportRequest struct {
	Reason string `json:"reason" example:"spam" validate:"required"`
}

// LikeResponse reports the like state after a toggle.
type LikeResponse struct {
	Liked bool `json:"liked"`
}

// ThreadPage is a page of threads.
type ThreadPage = forum.Page[models.Thread]

// TagThreadsResponse is a tag with a page of its threads.
type TagThreadsResponse struct {
	Tag models.Tag `json:"tag"`
	ThreadPage
}

// SearchResponse is a page of ranked search results.
type SearchResponse struct {
	Query string `json:"query"`
	ThreadPage
}
