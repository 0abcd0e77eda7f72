package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abdalhababsah/outlier/internal/platform/httpx"
	"github.com/abdalhababsah/outlier/internal/shared"
	"github.com/abdalhababsah/outlier/internal/view"
)

// PermissionsHandler serves the permission catalog and the
// single-permission role assignment endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	guard     *Guard
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, guard *Guard, templates *view.Engine, csrf *shared.CSRFManager, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, guard: guard, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/check", h.checkPermission)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPermissionsRead, shared.PermAdminPermissionsManage))
		r.Get("/", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPermissionAssignmentManage))
		r.Post("/assign", h.assignToRole)
		r.Post("/remove", h.removeFromRole)
	})
}

type formErrors map[string]string

// PermissionGroup is one dashboard type's permission block. Permissions
// without a dashboard type land in the trailing Global group.
type PermissionGroup struct {
	Name        string
	DisplayName string
	Permissions []Permission
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupedPermissions(r)
	if err != nil {
		h.render(w, r, "pages/permissions/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	roles, err := h.service.ListManageableRoles(r.Context())
	if err != nil {
		h.render(w, r, "pages/permissions/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/permissions/list.html", map[string]any{"Groups": groups, "Roles": roles}, http.StatusOK)
}

// checkPermission answers whether the current user holds the queried
// permission. Dashboard widgets poll it to hide controls the user cannot use.
func (h *PermissionsHandler) checkPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "sign in to check permissions")
		return
	}
	permission := r.URL.Query().Get("permission")
	if permission == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission query parameter is required")
		return
	}
	can, err := h.service.CheckPermission(r.Context(), userID, permission)
	if err != nil {
		h.logger.Error("check permission", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"can": can})
}

func (h *PermissionsHandler) assignToRole(w http.ResponseWriter, r *http.Request) {
	permissionID, roleID, ok := h.parseAssignmentForm(w, r)
	if !ok {
		return
	}
	actorID, _ := CurrentUserID(r)
	if err := h.guard.AssignPermissionToRole(r.Context(), permissionID, roleID, actorID); err != nil {
		h.redirectWithFlash(w, r, "/admin/permissions", "error", assignmentErrorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission assigned to role.")
}

func (h *PermissionsHandler) removeFromRole(w http.ResponseWriter, r *http.Request) {
	permissionID, roleID, ok := h.parseAssignmentForm(w, r)
	if !ok {
		return
	}
	actorID, _ := CurrentUserID(r)
	if err := h.guard.RemovePermissionFromRole(r.Context(), permissionID, roleID, actorID); err != nil {
		h.redirectWithFlash(w, r, "/admin/permissions", "error", assignmentErrorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission removed from role.")
}

func (h *PermissionsHandler) parseAssignmentForm(w http.ResponseWriter, r *http.Request) (permissionID, roleID int64, ok bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return 0, 0, false
	}
	permissionID, err := strconv.ParseInt(r.PostFormValue("permission_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid permission ID", http.StatusBadRequest)
		return 0, 0, false
	}
	roleID, err = strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid role ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return permissionID, roleID, true
}

func (h *PermissionsHandler) groupedPermissions(r *http.Request) ([]PermissionGroup, error) {
	types, err := h.service.ListDashboardTypes(r.Context())
	if err != nil {
		return nil, err
	}
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		return nil, err
	}
	byType := make(map[int64][]Permission)
	var global []Permission
	for _, perm := range perms {
		if perm.DashboardTypeID == nil {
			global = append(global, perm)
			continue
		}
		byType[*perm.DashboardTypeID] = append(byType[*perm.DashboardTypeID], perm)
	}
	groups := make([]PermissionGroup, 0, len(types)+1)
	for _, dt := range types {
		groups = append(groups, PermissionGroup{Name: dt.Name, DisplayName: dt.DisplayName, Permissions: byType[dt.ID]})
	}
	if len(global) > 0 {
		groups = append(groups, PermissionGroup{Name: "global", DisplayName: "Global", Permissions: global})
	}
	return groups, nil
}

func assignmentErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoleNotManageable):
		return "This role cannot be managed."
	case errors.Is(err, ErrNotFound):
		return "Permission or role not found."
	default:
		return shared.UserSafeMessage(err)
	}
}

func (h *PermissionsHandler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Permissions", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *PermissionsHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
