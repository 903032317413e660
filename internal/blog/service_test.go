package blog

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// fakeStore is a map-backed Store for service tests.
type fakeStore struct {
	posts  map[int64]*Post
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[int64]*Post), nextID: 1}
}

func (f *fakeStore) Create(ctx context.Context, p *Post) error {
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	f.posts[p.ID] = &clone
	return nil
}

func (f *fakeStore) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for _, p := range f.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) List(ctx context.Context, filter ListFilter, offset, limit int) ([]*Post, int, error) {
	var all []*Post
	for _, p := range f.posts {
		clone := *p
		all = append(all, &clone)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeStore) Update(ctx context.Context, p *Post) error {
	if _, ok := f.posts[p.ID]; !ok {
		return ErrNotFound
	}
	clone := *p
	f.posts[p.ID] = &clone
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) IncrementViews(ctx context.Context, id int64) (int, error) {
	p, ok := f.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.Views++
	return p.Views, nil
}

func TestCreateDerivesSlugAndDefaults(t *testing.T) {
	svc := NewService(newFakeStore())

	post, err := svc.Create(context.Background(), 1, Draft{
		Title:   "Hello, World!",
		Caption: "first",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Fatalf("slug = %q", post.Slug)
	}
	if post.Status != StatusDraft {
		t.Fatalf("status = %q, want draft", post.Status)
	}
	if post.PublishedAt != nil {
		t.Fatal("draft must not carry published_at")
	}
	if string(post.Content) != "[]" {
		t.Fatalf("content = %s, want []", post.Content)
	}
}

func TestCreateSlugCollisionGetsSuffix(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(newFakeStore(), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, Draft{Title: "Same Title", Caption: "a"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, 1, Draft{Title: "Same Title", Caption: "b"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Slug != "same-title" {
		t.Fatalf("first slug = %q", first.Slug)
	}
	want := "same-title-" + strconv.FormatInt(fixed.UnixMilli(), 10)
	if second.Slug != want {
		t.Fatalf("second slug = %q, want %q", second.Slug, want)
	}

	for _, slug := range []string{first.Slug, second.Slug} {
		if _, err := svc.Get(ctx, slug); err != nil {
			t.Fatalf("fetch %q: %v", slug, err)
		}
	}
}

func TestCreateRejectsInvalidContent(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Create(context.Background(), 1, Draft{
		Title: "T", Caption: "c", Content: []byte("{not json"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPublishSetsTimestampOnce(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(newFakeStore(), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, Draft{Title: "T", Caption: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now = now.Add(time.Hour)
	post, err = svc.Update(ctx, 1, false, post.Slug, Draft{
		Title: "T", Caption: "c", Status: StatusPublished,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if post.PublishedAt == nil || !post.PublishedAt.Equal(now) {
		t.Fatalf("published_at = %v, want %v", post.PublishedAt, now)
	}
	firstPublished := *post.PublishedAt

	now = now.Add(time.Hour)
	post, err = svc.Update(ctx, 1, false, post.Slug, Draft{
		Title: "T", Caption: "edited", Status: StatusPublished,
	})
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if !post.PublishedAt.Equal(firstPublished) {
		t.Fatalf("published_at moved on re-save: %v", post.PublishedAt)
	}
}

func TestUpdateReslugsOnlyOnTitleChange(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, Draft{Title: "Original Title", Caption: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	post, err = svc.Update(ctx, 1, false, post.Slug, Draft{
		Title: "Original Title", Caption: "new caption", Status: StatusDraft,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if post.Slug != "original-title" {
		t.Fatalf("slug changed without a title change: %q", post.Slug)
	}

	post, err = svc.Update(ctx, 1, false, post.Slug, Draft{
		Title: "Renamed Title", Caption: "new caption", Status: StatusDraft,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if post.Slug != "renamed-title" {
		t.Fatalf("slug = %q, want renamed-title", post.Slug)
	}
}

func TestUpdateForbiddenForOtherAuthors(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, Draft{Title: "Mine", Caption: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, 2, false, post.Slug, Draft{Title: "Mine", Caption: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other author: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Update(ctx, 2, true, post.Slug, Draft{Title: "Mine", Caption: "x", Status: StatusDraft}); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := svc.Delete(ctx, 2, false, post.Slug); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other author delete: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, 1, false, post.Slug); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestGetBumpsViews(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, Draft{Title: "T", Caption: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for want := 1; want <= 3; want++ {
		post, err := svc.Get(ctx, created.Slug)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if post.Views != want {
			t.Fatalf("views = %d, want %d", post.Views, want)
		}
	}
}

func TestListNormalizesPaging(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := svc.Create(ctx, 1, Draft{
			Title: "Post " + strconv.Itoa(i), Caption: "c",
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	_, page, err := svc.List(ctx, ListFilter{}, -3, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.Limit != 10 {
		t.Fatalf("page = %+v, want page 1 limit 10", page)
	}
	if page.TotalCount != 25 || page.TotalPages != 3 {
		t.Fatalf("totals = %+v", page)
	}
	if !page.HasNext || page.HasPrev {
		t.Fatalf("nav flags = %+v", page)
	}

	posts, page, err := svc.List(ctx, ListFilter{}, 3, 10)
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("page 3 size = %d, want 5", len(posts))
	}
	if page.HasNext || !page.HasPrev {
		t.Fatalf("nav flags = %+v", page)
	}
}
