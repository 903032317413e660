package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/audit"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/auth"
	"github.com/Bekiboo/Elevatus-Dashboard/internal/blog"
)

func (a *API) handleBlogCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPosts(w, r)
	case http.MethodPost:
		a.createPost(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	q := r.URL.Query()
	page := parsePositiveInt(q.Get("page"), 1)
	limit := parsePositiveInt(q.Get("limit"), 10)

	filter := blog.ListFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Featured: q.Get("featured") == "true",
	}
	if raw := q.Get("status"); raw != "" {
		status, err := blog.ParseStatus(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	posts, pagination, err := a.blog.List(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load posts")
		return
	}
	if posts == nil {
		posts = []*blog.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      posts,
		"pagination": pagination,
		"filters": map[string]any{
			"search":   filter.Search,
			"status":   filter.Status,
			"featured": filter.Featured,
		},
		"user": viewOfUser(user),
	})
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	draft, ok := a.draftFromForm(w, r)
	if !ok {
		return
	}

	post, err := a.blog.Create(r.Context(), user.ID, draft)
	switch {
	case errors.Is(err, blog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "title and caption are required")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to create post")
		return
	}

	_ = audit.LogEvent(r.Context(), "blog.post_created", map[string]any{
		"post_id": post.ID,
		"slug":    post.Slug,
	})
	http.Redirect(w, r, "/blog/"+url.PathEscape(post.Slug), http.StatusFound)
}

// handleBlogResource dispatches /blog/{slug}, /blog/{slug}/update and
// /blog/{slug}/delete.
func (a *API) handleBlogResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/blog/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}
	slug, action, _ := strings.Cut(rest, "/")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.viewPost(w, r, slug)
	case "update":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.updatePost(w, r, slug)
	case "delete":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.deletePost(w, r, slug)
	default:
		http.NotFound(w, r)
	}
}

// viewPost returns a single post and counts the view.
func (a *API) viewPost(w http.ResponseWriter, r *http.Request, slug string) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	post, err := a.blog.Get(r.Context(), slug)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load post")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"post": post,
		"user": viewOfUser(user),
	})
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request, slug string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	draft, ok := a.draftFromForm(w, r)
	if !ok {
		return
	}

	post, err := a.blog.Update(r.Context(), user.ID, user.Role == auth.RoleAdmin, slug, draft)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "post not found")
		return
	case errors.Is(err, blog.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "you can only edit your own posts")
		return
	case errors.Is(err, blog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "title and caption are required")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to update post")
		return
	}

	_ = audit.LogEvent(r.Context(), "blog.post_updated", map[string]any{
		"post_id": post.ID,
		"slug":    post.Slug,
	})
	http.Redirect(w, r, "/blog/"+url.PathEscape(post.Slug), http.StatusFound)
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request, slug string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	err := a.blog.Delete(r.Context(), user.ID, user.Role == auth.RoleAdmin, slug)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "post not found")
		return
	case errors.Is(err, blog.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "you can only delete your own posts")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to delete post")
		return
	}

	_ = audit.LogEvent(r.Context(), "blog.post_deleted", map[string]any{
		"slug": slug,
	})
	http.Redirect(w, r, "/blog", http.StatusFound)
}

// draftFromForm reads the editable post fields out of a form submission.
// Status defaults to draft; content must be a JSON document or empty.
func (a *API) draftFromForm(w http.ResponseWriter, r *http.Request) (blog.Draft, bool) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form data")
		return blog.Draft{}, false
	}

	d := blog.Draft{
		Title:     formValue(r, "title"),
		Caption:   formValue(r, "caption"),
		Excerpt:   formValue(r, "excerpt"),
		Thumbnail: formValue(r, "thumbnail"),
		Featured:  r.FormValue("featured") == "on" || r.FormValue("featured") == "true",
		Archived:  r.FormValue("archived") == "on" || r.FormValue("archived") == "true",
	}
	if raw := formValue(r, "status"); raw != "" {
		status, err := blog.ParseStatus(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid status")
			return blog.Draft{}, false
		}
		d.Status = status
	} else {
		d.Status = blog.StatusDraft
	}
	if raw := strings.TrimSpace(r.FormValue("content")); raw != "" {
		d.Content = json.RawMessage(raw)
	}
	return d, true
}
