package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

var postCols = []string{
	"id", "author_id", "slug", "title", "caption",
	"excerpt", "thumbnail", "archived", "featured",
	"status", "content", "views", "created_at", "published_at", "updated_at",
	"u_id", "u_first_name", "u_last_name", "u_title",
}

func postRow(rows *sqlmock.Rows, id int64, slug, title string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, int64(1), slug, title, "caption",
		"", "", false, false,
		"published", []byte(`[]`), 3, now, now, now,
		int64(1), "Ada", "Lovelace", "")
}

func TestListAppliesFiltersAndPagination(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select count").
		WithArgs("%go%", "published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("order by p.created_at desc").
		WithArgs("%go%", "published", 10, 10).
		WillReturnRows(postRow(sqlmock.NewRows(postCols), 11, "go-eleven", "Go eleven"))

	posts, total, err := store.List(context.Background(), blog.ListFilter{
		Search: "go",
		Status: blog.StatusPublished,
	}, 10, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 12 {
		t.Fatalf("total = %d, want 12", total)
	}
	if len(posts) != 1 || posts[0].Slug != "go-eleven" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if posts[0].Author == nil || posts[0].Author.FirstName != "Ada" {
		t.Fatalf("author not joined: %+v", posts[0].Author)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListFeaturedAddsNoArg(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("p.featured = true").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(postCols))

	_, total, err := store.List(context.Background(), blog.ListFilter{Featured: true}, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}

func TestFindBySlugNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("where p.slug =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindBySlug(context.Background(), "missing")
	if !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateReturningPopulates(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("insert into posts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "views", "created_at", "updated_at"}).
			AddRow(int64(5), 0, now, now))

	p := &blog.Post{
		AuthorID: 1, Slug: "t", Title: "T", Caption: "c",
		Status: blog.StatusDraft, Content: []byte(`[]`),
	}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != 5 {
		t.Fatalf("id = %d, want 5", p.ID)
	}
}

func TestUpdateMissingPost(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("update posts set slug").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), &blog.Post{
		ID: 99, Slug: "x", Title: "X", Caption: "c",
		Status: blog.StatusDraft, Content: []byte(`[]`),
	})
	if !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementViewsReturnsNewCount(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("update posts set views").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"views"}).AddRow(8))

	views, err := store.IncrementViews(context.Background(), 4)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if views != 8 {
		t.Fatalf("views = %d, want 8", views)
	}

	mock.ExpectQuery("update posts set views").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	if _, err := store.IncrementViews(context.Background(), 99); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSlugExists(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select exists").
		WithArgs("taken", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.SlugExists(context.Background(), "taken", 0)
	if err != nil {
		t.Fatalf("slug exists: %v", err)
	}
	if !exists {
		t.Fatal("expected existing slug to be reported")
	}
}
