package httpapi

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
)

// memStore is an in-memory auth.Store for handler tests.
type memStore struct {
	users  map[int64]*auth.User
	invs   map[int64]*auth.Invitation
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[int64]*auth.User),
		invs:   make(map[int64]*auth.Invitation),
		nextID: 1,
	}
}

func (m *memStore) Users(ctx context.Context) auth.UserStore             { return (*memUsers)(m) }
func (m *memStore) Invitations(ctx context.Context) auth.InvitationStore { return (*memInvs)(m) }

func (m *memStore) RedeemInvitation(ctx context.Context, token string, u *auth.User) error {
	invs := (*memInvs)(m)
	ok, err := invs.MarkUsed(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrInvalidInvitation
	}
	return (*memUsers)(m).Create(ctx, u)
}

type memUsers memStore

func (m *memUsers) Create(ctx context.Context, u *auth.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrAlreadyExists
		}
	}
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *memUsers) Find(ctx context.Context, id int64) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) List(ctx context.Context) ([]*auth.User, error) {
	out := make([]*auth.User, 0, len(m.users))
	for _, u := range m.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) SetVerified(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (m *memUsers) VerifyAll(ctx context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if !u.Verified {
			u.Verified = true
			n++
		}
	}
	return n, nil
}

func (m *memUsers) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	u, ok := m.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memUsers) otherVerifiedAdminExists(id int64) bool {
	for _, u := range m.users {
		if u.ID != id && u.Role == auth.RoleAdmin && u.Verified {
			return true
		}
	}
	return false
}

func (m *memUsers) DemoteGuarded(ctx context.Context, id int64, role auth.Role) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if !m.otherVerifiedAdminExists(id) {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (m *memUsers) Delete(ctx context.Context, id int64) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if u.Role == auth.RoleAdmin && u.Verified && !m.otherVerifiedAdminExists(id) {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

type memInvs memStore

func (m *memInvs) Create(ctx context.Context, inv *auth.Invitation) error {
	inv.ID = m.nextID
	m.nextID++
	inv.CreatedAt = time.Now().UTC()
	clone := *inv
	m.invs[inv.ID] = &clone
	return nil
}

func (m *memInvs) FindByToken(ctx context.Context, token string) (*auth.Invitation, error) {
	for _, inv := range m.invs {
		if inv.Token == token {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memInvs) ListPending(ctx context.Context) ([]*auth.Invitation, error) {
	var out []*auth.Invitation
	for _, inv := range m.invs {
		if !inv.Used {
			clone := *inv
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memInvs) MarkUsed(ctx context.Context, token string) (bool, error) {
	for _, inv := range m.invs {
		if inv.Token == token && !inv.Used && time.Now().UTC().Before(inv.ExpiresAt) {
			inv.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memInvs) Delete(ctx context.Context, id int64) error {
	if _, ok := m.invs[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.invs, id)
	return nil
}

// memBlogStore is an in-memory blog.Store for handler tests.
type memBlogStore struct {
	posts  map[int64]*blog.Post
	nextID int64
}

func newMemBlogStore() *memBlogStore {
	return &memBlogStore{posts: make(map[int64]*blog.Post), nextID: 1}
}

func (m *memBlogStore) Create(ctx context.Context, p *blog.Post) error {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	m.posts[p.ID] = &clone
	return nil
}

func (m *memBlogStore) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, blog.ErrNotFound
}

func (m *memBlogStore) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBlogStore) List(ctx context.Context, f blog.ListFilter, offset, limit int) ([]*blog.Post, int, error) {
	var matched []*blog.Post
	for _, p := range m.posts {
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Caption), needle) {
				continue
			}
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Featured && !p.Featured {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memBlogStore) Update(ctx context.Context, p *blog.Post) error {
	if _, ok := m.posts[p.ID]; !ok {
		return blog.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	m.posts[p.ID] = &clone
	return nil
}

func (m *memBlogStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return blog.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memBlogStore) IncrementViews(ctx context.Context, id int64) (int, error) {
	p, ok := m.posts[id]
	if !ok {
		return 0, blog.ErrNotFound
	}
	p.Views++
	return p.Views, nil
}
