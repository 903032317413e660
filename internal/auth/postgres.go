package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context context.Context) UserStore { return &userStore{db: s.db} }
func (s *PGStore) Invitations(context context.Context) InvitationStore {
	return &invitationStore{db: s.db}
}

// RedeemInvitation consumes the token and creates the user in one
// transaction so a token can never mint two accounts.
func (s *PGStore) RedeemInvitation(ctx context.Context, token string, u *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`update invitations set used = true where token = $1 and used = false and expires_at > now()`,
		token,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidInvitation
	}

	row := tx.QueryRowContext(ctx,
		`insert into users(email, password_hash, first_name, last_name, title, role, verified)
		 values($1,$2,$3,$4,nullif($5,''),$6,$7)
		 returning id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Title, u.Role.String(), u.Verified,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return tx.Commit()
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, email, password_hash, first_name, last_name, coalesce(title,''), role, verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Title, &role, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *User) error {
	row := s.db.QueryRowContext(ctx,
		`insert into users(email, password_hash, first_name, last_name, title, role, verified)
		 values($1,$2,$3,$4,nullif($5,''),$6,$7)
		 returning id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Title, u.Role.String(), u.Verified,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id int64) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email))
}

func (s *userStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *userStore) SetVerified(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`update users set verified = true, updated_at = now() where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) VerifyAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`update users set verified = true, updated_at = now() where verified = false`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *userStore) UpdateRole(ctx context.Context, id int64, role Role) error {
	res, err := s.db.ExecContext(ctx,
		`update users set role = $2, updated_at = now() where id = $1`, id, role.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) DemoteGuarded(ctx context.Context, id int64, role Role) (bool, error) {
	// The other-admins check lives in the same statement as the update, so
	// two concurrent demotions cannot both pass it.
	res, err := s.db.ExecContext(ctx, `
		update users t set role = $2, updated_at = now()
		where t.id = $1
		  and exists (
			select 1 from users u
			where u.role = 'admin' and u.verified and u.id <> t.id)
	`, id, role.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *userStore) Delete(ctx context.Context, id int64) (bool, error) {
	// A verified admin row is only deletable while another verified admin
	// exists; the count excludes the target row itself.
	res, err := s.db.ExecContext(ctx, `
		delete from users t
		where t.id = $1
		  and not (t.role = 'admin' and t.verified
			and not exists (
				select 1 from users u
				where u.role = 'admin' and u.verified and u.id <> t.id))
	`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Invitation store ---------------------------------------------------------

type invitationStore struct{ db *sql.DB }

const invitationColumns = `id, email, token, role, invited_by, used, expires_at, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (*Invitation, error) {
	var inv Invitation
	var role string
	err := row.Scan(&inv.ID, &inv.Email, &inv.Token, &role, &inv.InvitedBy,
		&inv.Used, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.Role = Role(role)
	return &inv, nil
}

func (s *invitationStore) Create(ctx context.Context, inv *Invitation) error {
	row := s.db.QueryRowContext(ctx,
		`insert into invitations(email, token, role, invited_by, expires_at)
		 values($1,$2,$3,$4,$5)
		 returning id, created_at`,
		inv.Email, inv.Token, inv.Role.String(), inv.InvitedBy, inv.ExpiresAt,
	)
	if err := row.Scan(&inv.ID, &inv.CreatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s *invitationStore) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	return scanInvitation(s.db.QueryRowContext(ctx,
		`select `+invitationColumns+` from invitations where token = $1`, token))
}

func (s *invitationStore) ListPending(ctx context.Context) ([]*Invitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+invitationColumns+` from invitations where used = false order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, rows.Err()
}

func (s *invitationStore) MarkUsed(ctx context.Context, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`update invitations set used = true where token = $1 and used = false and expires_at > now()`,
		token)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *invitationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from invitations where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapConstraint converts a unique violation into ErrAlreadyExists.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}
