package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/abdalhababsah/outlier/internal/shared"
)

// GrantsSource loads identity snapshots for the middleware. *Service
// satisfies it.
type GrantsSource interface {
	Grants(ctx context.Context, userID int64) (UserGrants, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers. The super
// admin bypass lives in the evaluator, so every guard below inherits it.
type Middleware struct {
	Source GrantsSource
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := trimPermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			grants, ok := m.currentGrants(w, r)
			if !ok {
				return
			}
			for _, perm := range required {
				if CanDo(grants, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current user holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	required := trimPermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grants, ok := m.currentGrants(w, r)
			if !ok {
				return
			}
			for _, perm := range required {
				if !CanDo(grants, perm) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireDashboard ensures the current user can access the named dashboard.
func (m Middleware) RequireDashboard(dashboard string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grants, ok := m.currentGrants(w, r)
			if !ok {
				return
			}
			if !CanAccessDashboard(grants, dashboard) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUserID extracts the authenticated user id from the session.
func CurrentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m Middleware) currentGrants(w http.ResponseWriter, r *http.Request) (UserGrants, bool) {
	userID, ok := CurrentUserID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return UserGrants{}, false
	}
	grants, err := m.Source.Grants(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac load grants", slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return UserGrants{}, false
	}
	return grants, true
}

func trimPermissions(perms []string) []string {
	trimmed := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		trimmed = append(trimmed, p)
	}
	return trimmed
}
