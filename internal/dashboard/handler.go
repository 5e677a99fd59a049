package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/stewardhq/steward/internal/shared"
	"github.com/stewardhq/steward/internal/view"
)

// Stats aggregates the headline counts shown on the admin landing page.
type Stats struct {
	Users       int64
	Roles       int64
	Permissions int64
}

// Repository reads dashboard aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Stats counts users, roles and permissions concurrently.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&stats.Roles)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`).Scan(&stats.Permissions)
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Purger queues maintenance jobs triggered from the admin UI.
type Purger interface {
	EnqueueSessionsPurge(ctx context.Context) error
}

// Handler renders the admin landing page.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
	purger    Purger
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, templates *view.Engine, csrf *shared.CSRFManager, purger Purger) *Handler {
	return &Handler{logger: logger, repo: repo, templates: templates, csrf: csrf, purger: purger}
}

// ShowDashboard renders headline counts for the back office.
func (h *Handler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("load dashboard stats", slog.Any("error", err))
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Stats": stats},
	}
	if err := h.templates.Render(w, "pages/home.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// PurgeSessions queues an immediate expired-session purge without waiting
// for the cron schedule.
func (h *Handler) PurgeSessions(w http.ResponseWriter, r *http.Request) {
	if err := h.purger.EnqueueSessionsPurge(r.Context()); err != nil {
		h.logger.Error("enqueue sessions purge", slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Could not queue the session purge.")
		return
	}
	h.redirectWithFlash(w, r, "success", "Session purge queued.")
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
