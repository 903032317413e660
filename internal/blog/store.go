package blog

import "context"

// Store describes persistence operations required for posts.
type Store interface {
	Create(ctx context.Context, p *Post) error
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)

	// List returns one page of posts matching the filter along with the
	// total number of matches under the same predicate.
	List(ctx context.Context, f ListFilter, offset, limit int) ([]*Post, int, error)

	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id int64) error

	// IncrementViews bumps the counter in a single statement and returns
	// the new value.
	IncrementViews(ctx context.Context, id int64) (int, error)
}
