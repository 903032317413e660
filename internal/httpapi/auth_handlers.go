package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/audit"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
)

// userView is the wire shape of a user, without the password hash.
type userView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Title     string    `json:"title,omitempty"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOfUser(u *auth.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Title:     u.Title,
		Role:      u.Role.String(),
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Already signed in, nothing to show here.
		if _, ok := auth.UserFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	case http.MethodPost:
		a.loginAction(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) loginAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	email := formValue(r, "email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	if !auth.ValidEmail(email) {
		writeError(w, r, http.StatusBadRequest, "please enter a valid email address")
		return
	}

	user, err := a.auth.Login(r.Context(), email, password)
	switch {
	case errors.Is(err, auth.ErrNotVerified):
		writeError(w, r, http.StatusBadRequest, "your account is pending verification by an administrator")
		return
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusBadRequest, "incorrect email or password")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	token, _, err := a.auth.IssueToken(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	a.setAuthCookie(w, token, a.auth.SessionTTL())

	_ = audit.LogEvent(auth.ContextWithUser(r.Context(), user), "auth.login", map[string]any{
		"email": user.Email,
	})

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
			"email": user.Email,
		})
	}
	a.clearAuthCookie(w)
	http.Redirect(w, r, "/login?message=logged_out", http.StatusFound)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.registerPage(w, r)
	case http.MethodPost:
		a.registerAction(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// registerPage validates the invitation token up front so the form is only
// shown for a live invitation.
func (a *API) registerPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	inv, err := a.auth.ValidateInvitationToken(r.Context(), token)
	if err != nil {
		http.Redirect(w, r, "/login?error=invitation_invalid", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email": inv.Email,
		"role":  inv.Role.String(),
		"token": token,
	})
}

func (a *API) registerAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}

	token := formValue(r, "token")
	nu := auth.NewUser{
		Email:     formValue(r, "email"),
		Password:  r.FormValue("password"),
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
		Title:     formValue(r, "title"),
	}
	confirm := r.FormValue("confirmPassword")

	if token == "" || nu.Email == "" || nu.Password == "" || nu.FirstName == "" || nu.LastName == "" {
		writeError(w, r, http.StatusBadRequest, "all required fields must be filled")
		return
	}
	if nu.Password != confirm {
		writeError(w, r, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(nu.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if !auth.ValidEmail(nu.Email) {
		writeError(w, r, http.StatusBadRequest, "please enter a valid email address")
		return
	}

	user, err := a.auth.Register(r.Context(), token, nu)
	switch {
	case errors.Is(err, auth.ErrInvalidInvitation):
		writeError(w, r, http.StatusBadRequest, "invalid or expired invitation token")
		return
	case errors.Is(err, auth.ErrEmailMismatch):
		writeError(w, r, http.StatusBadRequest, "email does not match the invitation")
		return
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, "an account with this email already exists")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	sessionToken, _, err := a.auth.IssueToken(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}
	a.setAuthCookie(w, sessionToken, a.auth.SessionTTL())

	_ = audit.LogEvent(auth.ContextWithUser(r.Context(), user), "auth.register", map[string]any{
		"email": user.Email,
		"role":  user.Role.String(),
	})

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": viewOfUser(user),
	})
}
