package httpapi

import (
	"net/http"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
)

const authCookieName = "auth_token"

// withAuth resolves the session cookie into a user on the request context.
// Invalid or stale cookies are cleared and the request continues anonymously;
// individual handlers decide whether anonymous access is allowed.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.auth.VerifyToken(cookie.Value)
		if err != nil {
			a.clearAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		id, err := claims.UserID()
		if err != nil {
			a.clearAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		// Re-fetch the user so role changes and deletions take effect
		// before the token expires.
		user, err := a.auth.GetUser(r.Context(), id)
		if err != nil {
			a.clearAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	})
}

// requireUser gates action endpoints. Returns false after writing a 401.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// requireAdmin gates admin action endpoints. Returns false after writing a
// 401 or 403.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if user.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin access required")
		return nil, false
	}
	return user, true
}

func (a *API) setAuthCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *API) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
