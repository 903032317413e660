package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Invitations(ctx context.Context) InvitationStore

	// RedeemInvitation atomically marks the invitation used and creates the
	// user; either both happen or neither does.
	RedeemInvitation(ctx context.Context, token string, u *User) error
}

// UserStore manages user records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	SetVerified(ctx context.Context, id int64) error
	VerifyAll(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id int64, role Role) error

	// DemoteGuarded changes the role only when another verified admin
	// remains; reports whether a row changed.
	DemoteGuarded(ctx context.Context, id int64, role Role) (bool, error)

	// Delete refuses, within the statement itself, to remove the last
	// verified admin; reports whether a row was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}

// InvitationStore manages invitation records.
type InvitationStore interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	ListPending(ctx context.Context) ([]*Invitation, error)

	// MarkUsed flips used only for a live token (unused, unexpired);
	// reports whether a row changed.
	MarkUsed(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, id int64) error
}
