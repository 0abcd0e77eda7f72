package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abdalhababsah/outlier/internal/rbac"
	"github.com/abdalhababsah/outlier/internal/shared"
	"github.com/abdalhababsah/outlier/internal/users"
	"github.com/abdalhababsah/outlier/internal/view"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	userSvc   *users.Service
	guard     *rbac.Guard
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, userSvc *users.Service, guard *rbac.Guard, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, userSvc: userSvc, guard: guard, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesRead, shared.PermAdminRolesManage))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesDelete))
		r.Post("/{id}/delete", h.deleteRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRoleAssignmentManage))
		r.Post("/{id}/users", h.assignUser)
		r.Post("/{id}/users/remove", h.removeUser)
	})
}

type formErrors map[string][]string

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": {shared.UserSafeMessage(err)}}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": roles}, http.StatusOK)
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetRoleDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.Error(w, "Role not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get role failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	assignable, err := h.userSvc.ListAssignableUsers(r.Context())
	if err != nil {
		h.logger.Error("list assignable users failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/show.html", map[string]any{
		"Detail":          detail,
		"AssignableUsers": assignable,
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.FormData(r.Context())
	if err != nil {
		h.logger.Error("load role form data failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Form":   form,
		"Errors": formErrors{},
		"Values": map[string]any{
			"Name":          "",
			"DisplayName":   "",
			"Description":   "",
			"DashboardType": "",
			"PermissionIDs": []int64{},
		},
	}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	params := rbac.CreateRoleParams{
		ActorID:       actorID,
		Name:          r.PostFormValue("name"),
		DisplayName:   r.PostFormValue("display_name"),
		Description:   r.PostFormValue("description"),
		DashboardType: rbac.ParseTypeRef(r.PostFormValue("dashboard_type_id")),
		PermissionIDs: parseIDList(r.PostForm["permissions"]),
	}

	role, err := h.guard.CreateRole(r.Context(), params)
	if err != nil {
		if verr, ok := rbac.AsValidationError(err); ok {
			h.renderFormWithErrors(w, r, "pages/roles/form.html", verr, params.Name, params.DisplayName, params.Description, r.PostFormValue("dashboard_type_id"), params.PermissionIDs, 0)
			return
		}
		h.logger.Error("create role failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/roles", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(role.ID, 10), "success", "Role created successfully.")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetRoleDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.Error(w, "Role not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get role failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form, err := h.service.FormData(r.Context())
	if err != nil {
		h.logger.Error("load role form data failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Form":   form,
		"Errors": formErrors{},
		"Role":   detail.Role,
		"Values": map[string]any{
			"Name":          detail.Role.Name,
			"DisplayName":   detail.Role.DisplayName,
			"Description":   detail.Role.Description,
			"DashboardType": detail.Role.DashboardTypeID,
			"PermissionIDs": detail.PermissionIDs,
		},
	}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	params := rbac.UpdateRoleParams{
		ActorID:       actorID,
		Name:          r.PostFormValue("name"),
		DisplayName:   r.PostFormValue("display_name"),
		Description:   r.PostFormValue("description"),
		DashboardType: rbac.ParseTypeRef(r.PostFormValue("dashboard_type_id")),
		PermissionIDs: parseIDList(r.PostForm["permissions"]),
	}

	if err := h.guard.UpdateRole(r.Context(), id, params); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			http.Error(w, "Role not found", http.StatusNotFound)
		case errors.Is(err, rbac.ErrRoleNotManageable):
			h.redirectWithFlash(w, r, "/admin/roles", "error", "This role cannot be managed.")
		default:
			if verr, ok := rbac.AsValidationError(err); ok {
				h.renderFormWithErrors(w, r, "pages/roles/form.html", verr, params.Name, params.DisplayName, params.Description, r.PostFormValue("dashboard_type_id"), params.PermissionIDs, id)
				return
			}
			h.logger.Error("update role failed", slog.Any("error", err), slog.Int64("id", id))
			h.redirectWithFlash(w, r, "/admin/roles", "error", shared.UserSafeMessage(err))
		}
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(id, 10), "success", "Role updated successfully.")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	if err := h.guard.DeleteRole(r.Context(), id, actorID); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			http.Error(w, "Role not found", http.StatusNotFound)
		case errors.Is(err, rbac.ErrProtectedRole):
			h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(id, 10), "error", "Cannot delete the base admin role.")
		case errors.Is(err, rbac.ErrRoleHasUsers):
			h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(id, 10), "error", "Cannot delete role that has users assigned to it.")
		case errors.Is(err, rbac.ErrRoleNotManageable):
			h.redirectWithFlash(w, r, "/admin/roles", "error", "This role cannot be managed.")
		default:
			h.logger.Error("delete role failed", slog.Any("error", err), slog.Int64("id", id))
			h.redirectWithFlash(w, r, "/admin/roles", "error", shared.UserSafeMessage(err))
		}
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role deleted successfully.")
}

func (h *Handler) assignUser(w http.ResponseWriter, r *http.Request) {
	roleID, userID, ok := h.parseUserForm(w, r)
	if !ok {
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	location := "/admin/roles/" + strconv.FormatInt(roleID, 10)
	if err := h.guard.AssignRoleToUser(r.Context(), roleID, userID, actorID); err != nil {
		h.redirectWithFlash(w, r, location, "error", userAssignmentMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "User assigned to role.")
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	roleID, userID, ok := h.parseUserForm(w, r)
	if !ok {
		return
	}
	actorID, _ := rbac.CurrentUserID(r)
	location := "/admin/roles/" + strconv.FormatInt(roleID, 10)
	if err := h.guard.RemoveRoleFromUser(r.Context(), roleID, userID, actorID); err != nil {
		h.redirectWithFlash(w, r, location, "error", userAssignmentMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "User removed from role.")
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid role ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) parseUserForm(w http.ResponseWriter, r *http.Request) (roleID, userID int64, ok bool) {
	roleID, ok = h.roleID(w, r)
	if !ok {
		return 0, 0, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return 0, 0, false
	}
	userID, err := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return roleID, userID, true
}

func userAssignmentMessage(err error) string {
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

func (h *Handler) renderFormWithErrors(w http.ResponseWriter, r *http.Request, template string, verr *rbac.ValidationError, name, displayName, description, dashboardType string, permissionIDs []int64, roleID int64) {
	form, err := h.service.FormData(r.Context())
	if err != nil {
		h.logger.Error("load role form data failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := map[string]any{
		"Form":   form,
		"Errors": formErrors(verr.Fields),
		"Values": map[string]any{
			"Name":          name,
			"DisplayName":   displayName,
			"Description":   description,
			"DashboardType": dashboardType,
			"PermissionIDs": permissionIDs,
		},
	}
	if roleID != 0 {
		data["Role"] = rbac.Role{ID: roleID}
	}
	h.render(w, r, template, data, http.StatusUnprocessableEntity)
}

func parseIDList(raw []string) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, value := range raw {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
