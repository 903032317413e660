package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Service provides post CRUD with author/admin access control.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List returns one page of posts matching the filter, newest first.
func (s *Service) List(ctx context.Context, f ListFilter, page, limit int) ([]*Post, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset := (page - 1) * limit

	posts, total, err := s.store.List(ctx, f, offset, limit)
	if err != nil {
		return nil, Page{}, err
	}
	totalPages := (total + limit - 1) / limit
	return posts, Page{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// Get fetches a post by slug and bumps its view counter. The returned post
// carries the incremented count.
func (s *Service) Get(ctx context.Context, slug string) (*Post, error) {
	post, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	views, err := s.store.IncrementViews(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Views = views
	return post, nil
}

// Create stores a new post authored by authorID.
func (s *Service) Create(ctx context.Context, authorID int64, d Draft) (*Post, error) {
	if d.Title == "" || d.Caption == "" {
		return nil, ErrInvalidInput
	}
	content, err := normalizeContent(d.Content)
	if err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, d.Title, 0)
	if err != nil {
		return nil, err
	}

	post := &Post{
		AuthorID:  authorID,
		Slug:      slug,
		Title:     d.Title,
		Caption:   d.Caption,
		Excerpt:   d.Excerpt,
		Thumbnail: d.Thumbnail,
		Archived:  d.Archived,
		Featured:  d.Featured,
		Status:    d.Status,
		Content:   content,
	}
	if post.Status == "" {
		post.Status = StatusDraft
	}
	if post.Status == StatusPublished {
		published := s.now().UTC()
		post.PublishedAt = &published
	}
	if err := s.store.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update edits the post behind slug. Only the author or an admin may edit.
// Returns the post with its possibly re-derived slug.
func (s *Service) Update(ctx context.Context, actorID int64, admin bool, slug string, d Draft) (*Post, error) {
	if d.Title == "" || d.Caption == "" {
		return nil, ErrInvalidInput
	}
	post, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !admin && post.AuthorID != actorID {
		return nil, ErrForbidden
	}
	content, err := normalizeContent(d.Content)
	if err != nil {
		return nil, err
	}
	if d.Title != post.Title {
		newSlug, err := s.uniqueSlug(ctx, d.Title, post.ID)
		if err != nil {
			return nil, err
		}
		post.Slug = newSlug
	}
	if d.Status == StatusPublished && post.PublishedAt == nil {
		published := s.now().UTC()
		post.PublishedAt = &published
	}
	post.Title = d.Title
	post.Caption = d.Caption
	post.Excerpt = d.Excerpt
	post.Thumbnail = d.Thumbnail
	post.Status = d.Status
	post.Featured = d.Featured
	post.Archived = d.Archived
	post.Content = content

	if err := s.store.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes the post behind slug. Only the author or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, actorID int64, admin bool, slug string) error {
	post, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if !admin && post.AuthorID != actorID {
		return ErrForbidden
	}
	return s.store.Delete(ctx, post.ID)
}

// uniqueSlug derives a slug from the title and disambiguates collisions by
// appending the current Unix millisecond timestamp.
func (s *Service) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", ErrInvalidInput
	}
	exists, err := s.store.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if exists {
		slug = slug + "-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	return slug, nil
}

func normalizeContent(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage(`[]`), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrInvalidInput)
	}
	return raw, nil
}
