package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/retail-backoffice/internal/catalog"
	"github.com/jmoiron/sqlx"
)

// Reader serves catalog lookups with plain SQL; it never writes.
type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

var _ catalog.ReaderAPI = (*Reader)(nil)

func (r *Reader) GetEmployeeByID(ctx context.Context, id int64) (*catalog.Employee, error) {
	var emp catalog.Employee
	query := r.db.Rebind(`SELECT id, name,
		COALESCE(department_id, 0) AS department_id,
		COALESCE(role_id, 0) AS role_id
		FROM employees WHERE id = ? AND deleted_at IS NULL`)
	if err := r.db.GetContext(ctx, &emp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return &emp, nil
}

func (r *Reader) GetModulesByIDs(ctx context.Context, ids []int64) ([]*catalog.Module, error) {
	modules := []*catalog.Module{}
	if len(ids) == 0 {
		return modules, nil
	}

	query, args, err := sqlx.In(`SELECT id, module_name, module_group_id FROM modules WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build modules query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &modules, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get modules by ids: %w", err)
	}
	return modules, nil
}

func (r *Reader) GetAllModules(ctx context.Context) ([]*catalog.Module, error) {
	modules := []*catalog.Module{}
	if err := r.db.SelectContext(ctx, &modules, `SELECT id, module_name, module_group_id FROM modules ORDER BY id`); err != nil {
		return nil, fmt.Errorf("get modules: %w", err)
	}
	return modules, nil
}

func (r *Reader) GetAllModuleGroups(ctx context.Context) ([]*catalog.ModuleGroup, error) {
	groups := []*catalog.ModuleGroup{}
	if err := r.db.SelectContext(ctx, &groups, `SELECT id, module_group_name FROM module_groups ORDER BY id`); err != nil {
		return nil, fmt.Errorf("get module groups: %w", err)
	}
	return groups, nil
}

func (r *Reader) GetDepartmentByID(ctx context.Context, id int64) (*catalog.Department, error) {
	var dept catalog.Department
	query := r.db.Rebind(`SELECT id, name FROM departments WHERE id = ? AND deleted_at IS NULL`)
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get department %d: %w", id, err)
	}
	return &dept, nil
}

func (r *Reader) GetRoleByID(ctx context.Context, id int64) (*catalog.Role, error) {
	var role catalog.Role
	query := r.db.Rebind(`SELECT id, name FROM roles WHERE id = ? AND deleted_at IS NULL`)
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return &role, nil
}
