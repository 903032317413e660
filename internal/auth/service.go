package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	defaultIssuer     = "elevatus"
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultInviteTTL  = 7 * 24 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the address has a plausible shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Service provides account, session and invitation operations.
type Service struct {
	store  Store
	secret []byte
	issuer string
	now    func() time.Time

	sessionTTL time.Duration
	inviteTTL  time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = strings.TrimSpace(issuer)
		}
		return nil
	}
}

// WithSessionTTL configures session token lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		return nil
	}
}

// WithInviteTTL configures invitation lifetime.
func WithInviteTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.inviteTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service. The signing secret is mandatory; callers
// decide at startup whether a development fallback is acceptable.
func NewService(store Store, secret string, opts ...ServiceOption) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	svc := &Service{
		store:      store,
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		now:        time.Now,
		sessionTTL: defaultSessionTTL,
		inviteTTL:  defaultInviteTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// SessionTTL returns the configured session lifetime, for cookie max-age.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// Authenticate returns the user matching email and password.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// Login authenticates and additionally requires a verified account.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	return user, nil
}

// CreateUser hashes the password and stores the account. Accounts created
// through an invitation are verified from the start.
func (s *Service) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	nu.Email = strings.TrimSpace(nu.Email)
	if nu.Email == "" || nu.Password == "" || nu.FirstName == "" || nu.LastName == "" {
		return nil, ErrInvalidInput
	}
	if nu.Role == "" {
		nu.Role = RoleAuthor
	}
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Email:        nu.Email,
		PasswordHash: hash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Title:        nu.Title,
		Role:         nu.Role,
		Verified:     true,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser fetches the full profile by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.store.Users(ctx).Find(ctx, id)
}

// ListUsers returns all accounts for the admin page.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.Users(ctx).List(ctx)
}

// VerifyUser marks a single account verified.
func (s *Service) VerifyUser(ctx context.Context, id int64) error {
	return s.store.Users(ctx).SetVerified(ctx, id)
}

// VerifyAllUsers marks every unverified account verified and reports how
// many rows changed.
func (s *Service) VerifyAllUsers(ctx context.Context) (int64, error) {
	return s.store.Users(ctx).VerifyAll(ctx)
}

// UpdateUserRole changes an account's role. Demoting one's own admin role is
// refused while no other verified admin exists; the guard and the update are
// a single statement, so concurrent demotions cannot both slip through.
func (s *Service) UpdateUserRole(ctx context.Context, actor *User, targetID int64, role Role) error {
	if actor == nil || actor.Role != RoleAdmin {
		return ErrUnauthorized
	}
	users := s.store.Users(ctx)
	if targetID == actor.ID && role != RoleAdmin {
		ok, err := users.DemoteGuarded(ctx, targetID, role)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLastAdmin
		}
		return nil
	}
	return users.UpdateRole(ctx, targetID, role)
}

// DeleteUser removes an account. Self-deletion is barred outright; removing
// the last verified admin is refused inside the delete statement itself.
func (s *Service) DeleteUser(ctx context.Context, actor *User, targetID int64) error {
	if actor == nil || actor.Role != RoleAdmin {
		return ErrUnauthorized
	}
	if targetID == actor.ID {
		return ErrSelfDeletion
	}
	users := s.store.Users(ctx)
	deleted, err := users.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}
	// Nothing deleted: either the row is gone or the guard fired.
	if _, err := users.Find(ctx, targetID); err != nil {
		return err
	}
	return ErrLastAdmin
}

// CreateInvitation stores a single-use invitation and returns it with the
// signed token populated.
func (s *Service) CreateInvitation(ctx context.Context, email string, role Role, invitedBy int64) (*Invitation, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidInput
	}
	token, err := s.newInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("sign invitation token: %w", err)
	}
	inv := &Invitation{
		Email:     email,
		Token:     token,
		Role:      role,
		InvitedBy: invitedBy,
		ExpiresAt: s.now().UTC().Add(s.inviteTTL),
	}
	if err := s.store.Invitations(ctx).Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ValidateInvitationToken returns the invitation behind a live token.
// Unknown, used and expired tokens are indistinguishable to the caller.
func (s *Service) ValidateInvitationToken(ctx context.Context, token string) (*Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidInvitation
	}
	inv, err := s.store.Invitations(ctx).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidInvitation
		}
		return nil, err
	}
	if inv.Used || s.now().UTC().After(inv.ExpiresAt) {
		return nil, ErrInvalidInvitation
	}
	return inv, nil
}

// MarkInvitationAsUsed consumes a live token and reports whether a row
// changed. Calling it twice for the same token reports false the second time.
func (s *Service) MarkInvitationAsUsed(ctx context.Context, token string) (bool, error) {
	return s.store.Invitations(ctx).MarkUsed(ctx, token)
}

// Register consumes the invitation and creates the account in one
// transaction. The token was already validated when the registration form
// was rendered; it is validated again here because it may have expired or
// been consumed in between.
func (s *Service) Register(ctx context.Context, token string, nu NewUser) (*User, error) {
	inv, err := s.ValidateInvitationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(nu.Email) != inv.Email {
		return nil, ErrEmailMismatch
	}
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Email:        inv.Email,
		PasswordHash: hash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Title:        nu.Title,
		Role:         inv.Role,
		Verified:     true,
	}
	if err := s.store.RedeemInvitation(ctx, token, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListPendingInvitations returns unused invitations for the admin page.
func (s *Service) ListPendingInvitations(ctx context.Context) ([]*Invitation, error) {
	return s.store.Invitations(ctx).ListPending(ctx)
}

// DeleteInvitation removes an invitation before use.
func (s *Service) DeleteInvitation(ctx context.Context, id int64) error {
	return s.store.Invitations(ctx).Delete(ctx, id)
}
