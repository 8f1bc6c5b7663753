package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	userDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/retail-backoffice/internal/user"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type userRow struct {
	ID        int64        `db:"id"`
	Email     string       `db:"email"`
	Name      string       `db:"name"`
	IsActive  bool         `db:"is_active"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userRow
	query := r.db.Rebind(`SELECT id, email, name, is_active, created_at, updated_at FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user query: %w", err)
	}

	return user.FromDataModel(&userDatamodel.User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}), nil
}

func (r *Repository) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	perms := []string{}
	query := r.db.Rebind(`
SELECT p.name
FROM permissions p
JOIN user_permissions up ON up.permission_id = p.id
WHERE up.user_id = ?
ORDER BY p.name`)
	if err := r.db.SelectContext(ctx, &perms, query, userID); err != nil {
		return nil, fmt.Errorf("user permissions query: %w", err)
	}
	return perms, nil
}
