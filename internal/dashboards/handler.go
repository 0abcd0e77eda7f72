package dashboards

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdalhababsah/outlier/internal/rbac"
	"github.com/abdalhababsah/outlier/internal/shared"
	"github.com/abdalhababsah/outlier/internal/view"
)

// RoutePath maps a dashboard route identifier to its HTTP path.
func RoutePath(routeID string) string {
	switch routeID {
	case rbac.RouteAdminDashboard:
		return "/admin"
	case rbac.RouteProjectOwnerDashboard:
		return "/project"
	case rbac.RouteStaffDashboard:
		return "/staff"
	default:
		return "/dashboard"
	}
}

// Handler serves the dashboard entry redirect and the three dashboards.
type Handler struct {
	logger    *slog.Logger
	service   *rbac.Service
	registry  *Registry
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *rbac.Service, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, registry: registry, templates: templates, csrf: csrf, rbac: rbac}
}

// MountEntry registers the /dashboard entry route.
func (h *Handler) MountEntry(r chi.Router) {
	r.Get("/", h.entry)
}

// MountAdmin registers the administration dashboard routes.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireDashboard(rbac.DashboardAdministration))
		r.Get("/", h.adminDashboard)
	})
}

// MountStaff registers the staff dashboard routes.
func (h *Handler) MountStaff(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireDashboard(rbac.DashboardStaff))
		r.Get("/", h.staffDashboard)
	})
}

// MountProject registers the project dashboard routes.
func (h *Handler) MountProject(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireDashboard(rbac.DashboardProject))
		r.Get("/", h.projectDashboard)
	})
}

// entry resolves where the current user belongs and redirects there. Users
// with no dashboard-granting role stay here on a minimal page.
func (h *Handler) entry(w http.ResponseWriter, r *http.Request) {
	userID, ok := rbac.CurrentUserID(r)
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	route, err := h.service.PrimaryDashboardRoute(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve primary dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if route == rbac.RouteDefaultDashboard {
		dashboards, err := h.service.EffectiveDashboards(r.Context(), userID)
		if err != nil {
			h.logger.Error("load effective dashboards", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		h.render(w, r, "pages/dashboard/index.html", "Dashboard", map[string]any{"Dashboards": dashboards})
		return
	}
	http.Redirect(w, r, RoutePath(route), http.StatusSeeOther)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("load admin stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard/admin.html", h.registry.DisplayName(r.Context(), rbac.DashboardAdministration), map[string]any{
		"Stats": stats,
	})
}

func (h *Handler) staffDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderScoped(w, r, "pages/dashboard/staff.html", rbac.DashboardStaff)
}

func (h *Handler) projectDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderScoped(w, r, "pages/dashboard/project.html", rbac.DashboardProject)
}

// renderScoped renders a dashboard page with the current user's effective
// permissions so the template can hide unavailable actions.
func (h *Handler) renderScoped(w http.ResponseWriter, r *http.Request, template, dashboard string) {
	userID, _ := rbac.CurrentUserID(r)
	permissions, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("load effective permissions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, template, h.registry.DisplayName(r.Context(), dashboard), map[string]any{
		"Permissions": permissions,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
