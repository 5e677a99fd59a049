package roles

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stewardhq/steward/internal/platform/httpx"
	"github.com/stewardhq/steward/internal/rbac"
	"github.com/stewardhq/steward/internal/shared"
	"github.com/stewardhq/steward/internal/view"
)

// PermissionCatalog exposes the permission operations the role screens need.
type PermissionCatalog interface {
	PermissionsByGroup(ctx context.Context) ([]rbac.PermissionGroup, error)
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
	SyncRolePermissions(ctx context.Context, roleID int64, names []string) error
}

// Handler manages role management endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	permissions PermissionCatalog
	templates   *view.Engine
	csrf        *shared.CSRFManager
	sessions    *shared.SessionManager
	rbac        rbac.Middleware
	validator   *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, permissions PermissionCatalog, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		permissions: permissions,
		templates:   templates,
		csrf:        csrf,
		sessions:    sessions,
		rbac:        rbac,
		validator:   validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesView))
		r.Get("/", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Put("/{id}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesDelete))
		r.Delete("/{id}", h.deleteRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesAssignPermissions))
		r.Put("/{id}/permissions", h.syncPermissions)
	})
}

type formErrors map[string]string

type roleForm struct {
	Name string `validate:"required,max=255"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roleList, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": roleList}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	userOptions, err := h.service.UserOptions(r.Context())
	if err != nil {
		h.logger.Error("load user options failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Form":        roleForm{},
		"UserOptions": userOptions,
		"Errors":      formErrors{},
	}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := roleForm{Name: r.PostFormValue("name")}
	errs := h.validateForm(form)
	userIDs, idErr := parseUserIDs(r.PostForm["user_ids"])
	if idErr != nil {
		errs["user_ids"] = "One or more selected users are invalid."
	}
	if len(errs) == 0 {
		role, err := h.service.CreateRole(r.Context(), form.Name, userIDs)
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(role.ID, 10)+"/edit", "success", "Role created.")
			return
		}
		h.applyServiceErrors(err, errs)
	}
	userOptions, optErr := h.service.UserOptions(r.Context())
	if optErr != nil {
		h.logger.Error("load user options failed", slog.Any("error", optErr))
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Form":        form,
		"UserOptions": userOptions,
		"Errors":      errs,
	}, http.StatusUnprocessableEntity)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.renderEdit(w, r, role, roleForm{Name: role.Name}, formErrors{}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := roleForm{Name: r.PostFormValue("name")}
	errs := h.validateForm(form)
	if len(errs) == 0 {
		_, err := h.service.UpdateRole(r.Context(), id, form.Name)
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(id, 10)+"/edit", "success", "Role updated.")
			return
		}
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, err)
			return
		}
		h.applyServiceErrors(err, errs)
	}
	role, getErr := h.service.GetRole(r.Context(), id)
	if getErr != nil {
		h.respondLookupError(w, r, getErr)
		return
	}
	h.renderEdit(w, r, role, form, errs, http.StatusUnprocessableEntity)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role deleted.")
}

func (h *Handler) syncPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	names := r.PostForm["permissions"]
	if err := h.permissions.SyncRolePermissions(r.Context(), id, names); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			if httpx.WantsJSON(r) {
				httpx.RespondError(w, httpx.ErrNotFound)
				return
			}
			http.NotFound(w, r)
			return
		}
		h.logger.Error("sync role permissions failed", slog.Any("error", err))
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(id, 10)+"/edit", "success", "Permissions updated.")
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, role Role, form roleForm, errs formErrors, status int) {
	grouped, err := h.permissions.PermissionsByGroup(r.Context())
	if err != nil {
		h.logger.Error("load permission groups failed", slog.Any("error", err))
	}
	assigned, err := h.permissions.RolePermissionNames(r.Context(), role.ID)
	if err != nil {
		h.logger.Error("load role permissions failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Form":                form,
		"Role":                role,
		"PermissionGroups":    grouped,
		"AssignedPermissions": assigned,
		"Errors":              errs,
	}, status)
}

func (h *Handler) applyServiceErrors(err error, errs formErrors) {
	var unknown *UnknownUsersError
	switch {
	case errors.Is(err, ErrNameRequired):
		errs["name"] = "Name is required."
	case errors.Is(err, ErrNameTooLong):
		errs["name"] = "Name may not exceed 255 characters."
	case errors.Is(err, ErrNameTaken):
		errs["name"] = "A role with this name already exists."
	case errors.As(err, &unknown), errors.Is(err, ErrDuplicateUser):
		errs["user_ids"] = "One or more selected users are invalid."
	default:
		h.logger.Error("role operation failed", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
	}
}

func (h *Handler) validateForm(form roleForm) formErrors {
	errs := formErrors{}
	err := h.validator.Struct(form)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["general"] = "Invalid form submission."
		return errs
	}
	for _, fe := range fieldErrs {
		if fe.Field() == "Name" {
			errs["name"] = "Name is required and may not exceed 255 characters."
		}
	}
	return errs
}

func parseUserIDs(values []string) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("roles: invalid user id value")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) paramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("role lookup failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
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
