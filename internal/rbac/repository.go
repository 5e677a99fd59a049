package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardhq/steward/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const permissionColumns = `id, name, group_name, created_at, updated_at`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Group, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Permission{}, err
	}
	return p, nil
}

// ListPermissions returns all permissions ordered by group then name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY group_name, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Group, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// GetPermission fetches a permission by ID.
func (r *Repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// CreatePermission inserts a new permission.
func (r *Repository) CreatePermission(ctx context.Context, name, group string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, group_name, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 RETURNING `+permissionColumns, name, group))
	if err != nil {
		return Permission{}, mapUniqueViolation(err)
	}
	return p, nil
}

// UpdatePermission overwrites name and group of an existing permission.
func (r *Repository) UpdatePermission(ctx context.Context, id int64, name, group string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`UPDATE permissions SET name = $2, group_name = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+permissionColumns, id, name, group))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, mapUniqueViolation(err)
	}
	return p, nil
}

// DeletePermission removes a permission; grant rows cascade via FK rules.
func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PermissionNameTaken reports whether another permission uses the name.
// Advisory only: the unique index remains the authoritative arbiter.
func (r *Repository) PermissionNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE name = $1 AND id <> $2)`,
		name, excludeID).Scan(&taken)
	return taken, err
}

// RoleExists reports whether a role id references a stored role.
func (r *Repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists)
	return exists, err
}

// RolePermissionNames returns the names granted to a role, ordered.
func (r *Repository) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1
		 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

// ReplaceRolePermissions swaps a role's grant set for the permissions whose
// names appear in names. Unknown names simply match no row. The delete and
// reinsert run in one transaction so no partial grant set is ever visible.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID int64, names []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id)
			 SELECT $1, id FROM permissions WHERE name = ANY($2)`,
			roleID, names)
		return err
	})
}

// EffectivePermissions returns deduplicated permission names for a user.
func (r *Repository) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.name FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN user_roles ur ON ur.role_id = rp.role_id
		 WHERE ur.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapUniqueViolation converts a 23505 raised by the unique index into the
// domain duplicate error so races surface like any validation failure.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNameTaken
	}
	return err
}
