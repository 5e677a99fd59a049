package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stewardhq/steward/internal/shared"
	"github.com/stewardhq/steward/internal/view"
)

// PermissionsHandler manages permission administration endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      Middleware
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPermissionsView))
		r.Get("/", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPermissionsCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPermissionsUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Put("/{id}", h.updatePermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPermissionsDelete))
		r.Delete("/{id}", h.deletePermission)
	})
}

type formErrors map[string]string

type permissionForm struct {
	Name  string `validate:"required,max=255"`
	Group string `validate:"required,max=255"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.PermissionsByGroup(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		h.render(w, r, "pages/permissions/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/permissions/list.html", map[string]any{"Groups": groups}, http.StatusOK)
}

func (h *PermissionsHandler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Groups(r.Context())
	if err != nil {
		h.logger.Error("load permission groups failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/permissions/form.html", map[string]any{
		"Form":        permissionForm{},
		"KnownGroups": groups,
		"Errors":      formErrors{},
	}, http.StatusOK)
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	form, errs := h.parseForm(r)
	if len(errs) == 0 {
		perm, err := h.service.CreatePermission(r.Context(), form.Name, form.Group)
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/permissions/"+strconv.FormatInt(perm.ID, 10)+"/edit", "success", "Permission created.")
			return
		}
		errs = h.serviceErrors(err)
		if errs == nil {
			h.logger.Error("create permission failed", slog.Any("error", err))
			errs = formErrors{"general": shared.UserSafeMessage(err)}
		}
	}
	groups, _ := h.service.Groups(r.Context())
	h.render(w, r, "pages/permissions/form.html", map[string]any{
		"Form":        form,
		"KnownGroups": groups,
		"Errors":      errs,
	}, http.StatusUnprocessableEntity)
}

func (h *PermissionsHandler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	perm, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	groups, _ := h.service.Groups(r.Context())
	h.render(w, r, "pages/permissions/form.html", map[string]any{
		"Form":        permissionForm{Name: perm.Name, Group: perm.Group},
		"Permission":  perm,
		"KnownGroups": groups,
		"Errors":      formErrors{},
	}, http.StatusOK)
}

func (h *PermissionsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	form, errs := h.parseForm(r)
	if len(errs) == 0 {
		_, err := h.service.UpdatePermission(r.Context(), id, form.Name, form.Group)
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/permissions/"+strconv.FormatInt(id, 10)+"/edit", "success", "Permission updated.")
			return
		}
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, err)
			return
		}
		errs = h.serviceErrors(err)
		if errs == nil {
			h.logger.Error("update permission failed", slog.Any("error", err))
			errs = formErrors{"general": shared.UserSafeMessage(err)}
		}
	}
	perm, getErr := h.service.GetPermission(r.Context(), id)
	if getErr != nil {
		h.respondLookupError(w, r, getErr)
		return
	}
	groups, _ := h.service.Groups(r.Context())
	h.render(w, r, "pages/permissions/form.html", map[string]any{
		"Form":        form,
		"Permission":  perm,
		"KnownGroups": groups,
		"Errors":      errs,
	}, http.StatusUnprocessableEntity)
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission deleted.")
}

func (h *PermissionsHandler) parseForm(r *http.Request) (permissionForm, formErrors) {
	if err := r.ParseForm(); err != nil {
		return permissionForm{}, formErrors{"general": "Invalid form submission."}
	}
	form := permissionForm{
		Name:  r.PostFormValue("name"),
		Group: r.PostFormValue("group"),
	}
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "Name":
					errs["name"] = "Permission name is required and may not exceed 255 characters."
				case "Group":
					errs["group"] = "Group is required and may not exceed 255 characters."
				}
			}
		}
	}
	if len(errs) == 0 {
		return form, nil
	}
	return form, errs
}

// serviceErrors converts domain errors into field messages; nil means the
// error was not a validation outcome.
func (h *PermissionsHandler) serviceErrors(err error) formErrors {
	switch {
	case errors.Is(err, ErrGroupRequired):
		return formErrors{"group": "Group is required."}
	case errors.Is(err, ErrGroupTooLong):
		return formErrors{"group": "Group may not exceed 255 characters."}
	case errors.Is(err, ErrNameRequired):
		return formErrors{"name": "Permission name is required."}
	case errors.Is(err, ErrNameTooLong):
		return formErrors{"name": "Permission name may not exceed 255 characters."}
	case errors.Is(err, ErrNameTaken):
		return formErrors{"name": "A permission with this name already exists."}
	default:
		return nil
	}
}

func (h *PermissionsHandler) paramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *PermissionsHandler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("permission lookup failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
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
