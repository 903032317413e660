package blog

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("blog: post not found")
	ErrInvalidInput = errors.New("blog: invalid input")
	ErrForbidden    = errors.New("blog: forbidden")
)

// Status is the post lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus validates a status submitted through a form.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	case StatusArchived:
		return StatusArchived, nil
	default:
		return "", ErrInvalidInput
	}
}

// Author is the subset of the user profile shown alongside a post.
type Author struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title,omitempty"`
}

// Post is a blog entry. Content is an opaque JSON blob assembled by the
// editor frontend.
type Post struct {
	ID          int64           `json:"id"`
	AuthorID    int64           `json:"author_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Caption     string          `json:"caption"`
	Excerpt     string          `json:"excerpt,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Archived    bool            `json:"archived"`
	Featured    bool            `json:"featured"`
	Status      Status          `json:"status"`
	Content     json.RawMessage `json:"content,omitempty"`
	Views       int             `json:"views"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Author      *Author         `json:"author,omitempty"`
}

// Draft carries the editable fields of a post.
type Draft struct {
	Title     string
	Caption   string
	Excerpt   string
	Thumbnail string
	Status    Status
	Featured  bool
	Archived  bool
	Content   json.RawMessage
}

// ListFilter narrows a listing. Zero values mean "no filter"; Featured only
// filters when true, matching the original query parameter semantics.
type ListFilter struct {
	Search   string
	Status   Status
	Featured bool
}

// Page describes one page of a filtered listing.
type Page struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}
