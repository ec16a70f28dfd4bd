package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/pkg/httputil"
	"github.com/mergington/activities-portal/internal/service/activity"
)

// ListActivities returns every activity keyed by name.
//
//	GET /activities
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	all, err := h.activities.ListActivities(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, all)
}

// Signup adds a student to an activity.
//
//	POST /activities/{activity_name}/signup?email=
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(r)
	if !ok {
		httputil.Unprocessable(w, "email is required", map[string]string{"email": domain.MsgFieldRequired})
		return
	}

	res, err := h.activities.Signup(r.Context(), activityName(r), email)
	switch {
	case err == nil:
		httputil.OK(w, res)
	case errors.Is(err, activity.ErrNotFound):
		httputil.NotFound(w, "Activity not found")
	default:
		httputil.InternalError(w, err)
	}
}

// emailParam reads email from the query string, then from a posted form.
// An empty value counts as present.
func emailParam(r *http.Request) (string, bool) {
	if q := r.URL.Query(); q.Has("email") {
		return q.Get("email"), true
	}
	if err := r.ParseForm(); err == nil && r.PostForm.Has("email") {
		return r.PostForm.Get("email"), true
	}
	return "", false
}

// activityName returns the decoded path segment. chi matches on RawPath
// when the request escaped a reserved character, leaving it encoded.
func activityName(r *http.Request) string {
	name := chi.URLParam(r, "activity_name")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(name); err == nil {
			return decoded
		}
	}
	return name
}
