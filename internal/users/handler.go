package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abdalhababsah/outlier/internal/rbac"
	"github.com/abdalhababsah/outlier/internal/shared"
	"github.com/abdalhababsah/outlier/internal/view"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *rbac.Guard
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAdminUsersManage, shared.PermRoleAssignmentManage))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRoleAssignmentManage))
		r.Post("/{id}/roles", h.assignRole)
		r.Post("/{id}/roles/remove", h.removeRole)
	})
}

type formErrors map[string]string

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	users, pagination, err := h.service.ListUsers(r.Context(), page, 20)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{"Users": users, "Pagination": pagination}, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get user failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/show.html", map[string]any{"User": user}, http.StatusOK)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, ok := h.parseRoleForm(w, r)
	if !ok {
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	location := "/admin/users/" + strconv.FormatInt(userID, 10)
	if err := h.guard.AssignRoleToUser(r.Context(), roleID, userID, actorID); err != nil {
		h.redirectWithFlash(w, r, location, "error", roleAssignmentMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "Role assigned.")
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, ok := h.parseRoleForm(w, r)
	if !ok {
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	location := "/admin/users/" + strconv.FormatInt(userID, 10)
	if err := h.guard.RemoveRoleFromUser(r.Context(), roleID, userID, actorID); err != nil {
		h.redirectWithFlash(w, r, location, "error", roleAssignmentMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "Role removed.")
}

func (h *Handler) parseRoleForm(w http.ResponseWriter, r *http.Request) (userID, roleID int64, ok bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return 0, 0, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return 0, 0, false
	}
	roleID, err = strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid role ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, roleID, true
}

func roleAssignmentMessage(err error) string {
	switch {
	case errors.Is(err, rbac.ErrRoleNotManageable):
		return "This role cannot be managed."
	case errors.Is(err, rbac.ErrRoleConflict):
		return "This user cannot be assigned managed roles."
	case errors.Is(err, rbac.ErrNotFound):
		return "User or role not found."
	default:
		return shared.UserSafeMessage(err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Users", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
