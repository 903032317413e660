package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/obs"
)

// ReadyProbe reports readiness (database reachability).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the request-independent settings of the HTTP layer.
type Config struct {
	Version string
	// Origin is the public base URL used when building invitation links.
	Origin string
	// SecureCookies toggles the Secure attribute; off in development so the
	// cookie survives plain http://localhost.
	SecureCookies bool
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	blog       *blog.Service
	readyProbe ReadyProbe
	cfg        Config
}

func New(authSvc *auth.Service, blogSvc *blog.Service, rp ReadyProbe, cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		blog:       blogSvc,
		readyProbe: rp,
		cfg:        cfg,
	}

	// Credential endpoints carry a tighter rate limit than the rest.
	a.mux.Handle("/login", RateLimit(http.HandlerFunc(a.handleLogin), 10, 5))
	a.mux.Handle("/register", RateLimit(http.HandlerFunc(a.handleRegister), 10, 5))
	a.mux.HandleFunc("/logout", a.handleLogout)
	a.mux.HandleFunc("/dashboard", a.handleDashboard)

	a.mux.HandleFunc("/admin", a.handleAdmin)
	a.mux.HandleFunc("/admin/users/verify", a.handleVerifyUser)
	a.mux.HandleFunc("/admin/users/verify-all", a.handleVerifyAll)
	a.mux.HandleFunc("/admin/users/delete", a.handleDeleteUser)
	a.mux.HandleFunc("/admin/users/role", a.handleUpdateUserRole)
	a.mux.HandleFunc("/admin/invitations", a.handleCreateInvitation)
	a.mux.HandleFunc("/admin/invitations/delete", a.handleDeleteInvitation)

	a.mux.HandleFunc("/blog", a.handleBlogCollection)
	a.mux.HandleFunc("/blog/", a.handleBlogResource)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "elevatus-dashboard",
		"version": a.cfg.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "elevatus-dashboard",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.cfg.Version,
	})
}
