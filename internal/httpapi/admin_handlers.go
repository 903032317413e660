package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/audit"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
)

type invitationView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	InvitedBy int64     `json:"invited_by"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOfInvitation(inv *auth.Invitation) invitationView {
	return invitationView{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      inv.Role.String(),
		InvitedBy: inv.InvitedBy,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

// handleAdmin serves the management page data: all accounts plus pending
// invitations.
func (a *API) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if user.Role != auth.RoleAdmin {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load users")
		return
	}
	invitations, err := a.auth.ListPendingInvitations(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load invitations")
		return
	}

	userViews := make([]userView, 0, len(users))
	for _, u := range users {
		userViews = append(userViews, viewOfUser(u))
	}
	invViews := make([]invitationView, 0, len(invitations))
	for _, inv := range invitations {
		invViews = append(invViews, viewOfInvitation(inv))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":           userViews,
		"invitations":     invViews,
		"current_user_id": user.ID,
	})
}

func (a *API) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	id, ok := parseID(r.FormValue("userId"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := a.auth.VerifyUser(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to verify user")
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.user_verified", map[string]any{
		"target_id": id,
		"actor_id":  actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "user verified",
	})
}

func (a *API) handleVerifyAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	count, err := a.auth.VerifyAllUsers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to verify users")
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.users_verified_all", map[string]any{
		"count":    count,
		"actor_id": actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d user(s) verified", count),
	})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	id, ok := parseID(r.FormValue("userId"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	err := a.auth.DeleteUser(r.Context(), actor, id)
	switch {
	case errors.Is(err, auth.ErrSelfDeletion):
		writeError(w, r, http.StatusBadRequest, "you cannot delete your own account")
		return
	case errors.Is(err, auth.ErrLastAdmin):
		writeError(w, r, http.StatusBadRequest, "cannot delete the last admin account")
		return
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to delete user")
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.user_deleted", map[string]any{
		"target_id": id,
		"actor_id":  actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "user deleted",
	})
}

func (a *API) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	id, ok := parseID(r.FormValue("userId"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	role, err := auth.ParseRole(r.FormValue("role"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role")
		return
	}

	err = a.auth.UpdateUserRole(r.Context(), actor, id, role)
	switch {
	case errors.Is(err, auth.ErrLastAdmin):
		writeError(w, r, http.StatusBadRequest, "cannot demote the last admin account")
		return
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to update role")
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.role_updated", map[string]any{
		"target_id": id,
		"role":      role.String(),
		"actor_id":  actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "role updated",
	})
}

func (a *API) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	email := formValue(r, "email")
	roleRaw := formValue(r, "role")
	if email == "" || roleRaw == "" {
		writeError(w, r, http.StatusBadRequest, "email and role are required")
		return
	}
	role, err := auth.ParseRole(roleRaw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role")
		return
	}

	inv, err := a.auth.CreateInvitation(r.Context(), email, role, actor.ID)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "please enter a valid email address")
		return
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, "an invitation for this email already exists")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to create invitation")
		return
	}

	inviteURL := a.cfg.Origin + "/register?token=" + url.QueryEscape(inv.Token)

	_ = audit.LogEvent(r.Context(), "admin.invitation_created", map[string]any{
		"email":    inv.Email,
		"role":     inv.Role.String(),
		"actor_id": actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "invitation created",
		"invite_url": inviteURL,
		"email":      inv.Email,
		"role":       inv.Role.String(),
	})
}

func (a *API) handleDeleteInvitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return
	}
	id, ok := parseID(r.FormValue("invitationId"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid invitation id")
		return
	}

	if err := a.auth.DeleteInvitation(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "invitation not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to delete invitation")
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.invitation_deleted", map[string]any{
		"invitation_id": id,
		"actor_id":      actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "invitation deleted",
	})
}
