package users

import (
	"errors"
	"fmt"
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

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Put("/{id}", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersDelete))
		r.Delete("/{id}", h.deleteUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersAssignRoles))
		r.Put("/{id}/roles", h.syncRoles)
	})
}

type formErrors map[string]string

type createForm struct {
	Name                 string `validate:"required,max=255"`
	Email                string `validate:"required,email,max=255"`
	Password             string `validate:"required,min=8"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
}

type updateForm struct {
	Name                 string `validate:"required,max=255"`
	Email                string `validate:"required,email,max=255"`
	Password             string `validate:"omitempty,min=8"`
	PasswordConfirmation string `validate:"required_with=Password,eqfield=Password"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{"Users": users}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Form":   createForm{},
		"Errors": formErrors{},
	}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := createForm{
		Name:                 r.PostFormValue("name"),
		Email:                r.PostFormValue("email"),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
	}
	errs := h.validateForm(form)
	if len(errs) == 0 {
		user, err := h.service.CreateUser(r.Context(), CreateInput{
			Name:     form.Name,
			Email:    form.Email,
			Password: form.Password,
		})
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/users/"+strconv.FormatInt(user.ID, 10)+"/edit", "success", "User created.")
			return
		}
		if errors.Is(err, ErrEmailTaken) {
			errs["email"] = "A user with this email address already exists."
		} else {
			h.logger.Error("create user failed", slog.Any("error", err))
			errs["general"] = shared.UserSafeMessage(err)
		}
	}
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Form":   form,
		"Errors": errs,
	}, http.StatusUnprocessableEntity)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.renderEdit(w, r, user, updateForm{Name: user.Name, Email: user.Email}, formErrors{}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := updateForm{
		Name:                 r.PostFormValue("name"),
		Email:                r.PostFormValue("email"),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
	}
	errs := h.validateForm(form)
	if len(errs) == 0 {
		_, err := h.service.UpdateUser(r.Context(), id, UpdateInput{
			Name:     form.Name,
			Email:    form.Email,
			Password: form.Password,
		})
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/users/"+strconv.FormatInt(id, 10)+"/edit", "success", "User updated.")
			return
		}
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, err)
			return
		}
		if errors.Is(err, ErrEmailTaken) {
			errs["email"] = "A user with this email address already exists."
		} else {
			h.logger.Error("update user failed", slog.Any("error", err))
			errs["general"] = shared.UserSafeMessage(err)
		}
	}
	user, getErr := h.service.GetUser(r.Context(), id)
	if getErr != nil {
		h.respondLookupError(w, r, getErr)
		return
	}
	h.renderEdit(w, r, user, form, errs, http.StatusUnprocessableEntity)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/users", "success", "User deleted.")
}

func (h *Handler) syncRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleNames := r.PostForm["roles"]
	if err := h.service.SyncRoles(r.Context(), id, roleNames); err != nil {
		if httpx.WantsJSON(r) {
			h.respondSyncJSON(w, err)
			return
		}
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, err)
			return
		}
		var unknown *UnknownRolesError
		switch {
		case errors.As(err, &unknown), errors.Is(err, ErrDuplicateRole):
			user, getErr := h.service.GetUser(r.Context(), id)
			if getErr != nil {
				h.respondLookupError(w, r, getErr)
				return
			}
			h.renderEdit(w, r, user, updateForm{Name: user.Name, Email: user.Email},
				formErrors{"roles": "One or more selected roles are invalid."}, http.StatusUnprocessableEntity)
		default:
			h.logger.Error("sync user roles failed", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h.redirectWithFlash(w, r, "/admin/users/"+strconv.FormatInt(id, 10)+"/edit", "success", "Roles updated.")
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, user User, form any, errs formErrors, status int) {
	roleOptions, err := h.service.RoleOptions(r.Context())
	if err != nil {
		h.logger.Error("load role options failed", slog.Any("error", err))
	}
	assigned, err := h.service.UserRoleNames(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("load user roles failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Form":          form,
		"User":          user,
		"RoleOptions":   roleOptions,
		"AssignedRoles": assigned,
		"Errors":        errs,
	}, status)
}

func (h *Handler) validateForm(form any) formErrors {
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
		switch fe.Field() {
		case "Name":
			errs["name"] = "Name is required and may not exceed 255 characters."
		case "Email":
			errs["email"] = "A valid email address is required."
		case "Password":
			errs["password"] = "Password must be at least 8 characters."
		case "PasswordConfirmation":
			errs["password_confirmation"] = "Password confirmation does not match."
		}
	}
	return errs
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
	h.logger.Error("user lookup failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
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

// respondSyncJSON translates role sync failures for XHR callers.
func (h *Handler) respondSyncJSON(w http.ResponseWriter, err error) {
	var unknown *UnknownRolesError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.As(err, &unknown), errors.Is(err, ErrDuplicateRole):
		httpx.RespondError(w, fmt.Errorf("one or more selected roles are invalid: %w", httpx.ErrValidation))
	default:
		h.logger.Error("sync user roles failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
