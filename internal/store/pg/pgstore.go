package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
)

// Store implements blog.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ blog.Store = (*Store)(nil)

// Open connects to Postgres with pool settings suitable for a small web app.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by tests and by main, which shares
// one pool across stores).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const postColumns = `p.id, p.author_id, p.slug, p.title, p.caption,
	coalesce(p.excerpt,''), coalesce(p.thumbnail,''), p.archived, p.featured,
	p.status, p.content, p.views, p.created_at, p.published_at, p.updated_at`

const authorColumns = `u.id, u.first_name, u.last_name, coalesce(u.title,'')`

func scanPost(row interface{ Scan(...any) error }) (*blog.Post, error) {
	var (
		p           blog.Post
		status      string
		publishedAt sql.NullTime
		authorID    sql.NullInt64
		firstName   sql.NullString
		lastName    sql.NullString
		authorTitle sql.NullString
	)
	err := row.Scan(&p.ID, &p.AuthorID, &p.Slug, &p.Title, &p.Caption,
		&p.Excerpt, &p.Thumbnail, &p.Archived, &p.Featured,
		&status, &p.Content, &p.Views, &p.CreatedAt, &publishedAt, &p.UpdatedAt,
		&authorID, &firstName, &lastName, &authorTitle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blog.ErrNotFound
		}
		return nil, err
	}
	p.Status = blog.Status(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	if authorID.Valid {
		p.Author = &blog.Author{
			ID:        authorID.Int64,
			FirstName: firstName.String,
			LastName:  lastName.String,
			Title:     authorTitle.String,
		}
	}
	return &p, nil
}

// filterClause renders the WHERE clause shared by List and its count query.
func filterClause(f blog.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ilike $%d or p.caption ilike $%d)", n, n))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if f.Featured {
		conds = append(conds, "p.featured = true")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func (s *Store) List(ctx context.Context, f blog.ListFilter, offset, limit int) ([]*blog.Post, int, error) {
	where, args := filterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `select ` + postColumns + `, ` + authorColumns + `
		from posts p
		left join users u on u.id = p.author_id` + where +
		fmt.Sprintf(` order by p.created_at desc limit $%d offset $%d`, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (s *Store) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	return scanPost(s.db.QueryRowContext(ctx,
		`select `+postColumns+`, `+authorColumns+`
		 from posts p
		 left join users u on u.id = p.author_id
		 where p.slug = $1`, slug))
}

func (s *Store) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from posts where slug = $1 and id <> $2)`,
		slug, excludeID).Scan(&exists)
	return exists, err
}

func (s *Store) Create(ctx context.Context, p *blog.Post) error {
	row := s.db.QueryRowContext(ctx, `
		insert into posts(author_id, slug, title, caption, excerpt, thumbnail,
			archived, featured, status, content, published_at)
		values($1,$2,$3,$4,nullif($5,''),nullif($6,''),$7,$8,$9,$10,$11)
		returning id, views, created_at, updated_at`,
		p.AuthorID, p.Slug, p.Title, p.Caption, p.Excerpt, p.Thumbnail,
		p.Archived, p.Featured, string(p.Status), []byte(p.Content), p.PublishedAt,
	)
	return row.Scan(&p.ID, &p.Views, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Store) Update(ctx context.Context, p *blog.Post) error {
	res, err := s.db.ExecContext(ctx, `
		update posts set slug = $2, title = $3, caption = $4,
			excerpt = nullif($5,''), thumbnail = nullif($6,''),
			archived = $7, featured = $8, status = $9, content = $10,
			published_at = $11, updated_at = now()
		where id = $1`,
		p.ID, p.Slug, p.Title, p.Caption, p.Excerpt, p.Thumbnail,
		p.Archived, p.Featured, string(p.Status), []byte(p.Content), p.PublishedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from posts where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementViews(ctx context.Context, id int64) (int, error) {
	var views int
	err := s.db.QueryRowContext(ctx,
		`update posts set views = views + 1 where id = $1 returning views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, blog.ErrNotFound
	}
	return views, err
}
