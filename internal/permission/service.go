package permission

import (
	"context"
	stderrors "errors"
	"log/slog"

	errors "github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/catalog"
	"github.com/frahmantamala/retail-backoffice/internal/core/common/validation"
	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/retail-backoffice/internal/core/events"
	"github.com/frahmantamala/retail-backoffice/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RepositoryAPI is the grant store. ReplaceForEmployee must hard delete the employee's rows
// and insert the new ones in a single transaction, filling in generated ids.
type RepositoryAPI interface {
	ReplaceForEmployee(ctx context.Context, employeeID int64, rows []*permissionDatamodel.EmployeePermission) error
	GetByEmployeeID(ctx context.Context, employeeID int64) ([]*permissionDatamodel.EmployeePermission, error)
}

type CatalogAPI interface {
	GetEmployeeByID(ctx context.Context, id int64) (*catalog.Employee, error)
	GetModulesByIDs(ctx context.Context, ids []int64) ([]*catalog.Module, error)
	GetAllModuleGroups(ctx context.Context) ([]*catalog.ModuleGroup, error)
	GetDepartmentByID(ctx context.Context, id int64) (*catalog.Department, error)
	GetRoleByID(ctx context.Context, id int64) (*catalog.Role, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	catalog   CatalogAPI
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, catalog CatalogAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// ReplaceGrants swaps the employee's whole grant set for the submitted one. Modules left out
// of the request are revoked. Nothing is written when validation fails.
func (s *Service) ReplaceGrants(ctx context.Context, employeeID int64, req *ReplaceGrantsRequest) ([]*Grant, error) {
	if appErr := validation.ValidateEmployeeID(employeeID); appErr != nil {
		return nil, appErr
	}
	if req == nil {
		return nil, errors.ErrPermissionsRequired
	}
	inputs, appErr := req.ParsePermissions()
	if appErr != nil {
		return nil, appErr
	}

	grants := NewGrants(employeeID, req.DepartmentID, req.RoleName, inputs)
	rows := make([]*permissionDatamodel.EmployeePermission, len(grants))
	for i, g := range grants {
		rows[i] = ToDataModel(g)
	}

	if err := s.repo.ReplaceForEmployee(ctx, employeeID, rows); err != nil {
		if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
			s.logger.Warn("replace grants rejected: unknown reference", "employee_id", employeeID, "error", err)
			return nil, errors.ErrUnknownReference.WithCause(err)
		}
		s.logger.Error("failed to replace employee grants", "employee_id", employeeID, "grants", len(rows), "error", err)
		return nil, errors.NewInternalError("failed to save employee permissions", err)
	}

	saved := make([]*Grant, len(rows))
	for i, row := range rows {
		saved[i] = FromDataModel(row)
	}

	s.logger.Info("employee grants replaced", "employee_id", employeeID, "grants", len(saved))

	if s.publisher != nil {
		event := events.NewEmployeePermissionsReplacedEvent(employeeID, req.DepartmentID, req.RoleName, len(saved))
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish permissions replaced event", "employee_id", employeeID, "error", err)
		}
	}

	return saved, nil
}

// resolution holds one employee's grants and the catalog rows they reference.
type resolution struct {
	employee   *catalog.Employee
	grants     []*Grant
	modules    catalog.ModuleIndex
	groups     catalog.GroupIndex
	department *catalog.Department
	role       *catalog.Role
}

// load verifies the employee before any grant access, then fetches the referenced catalogs
// concurrently. withOrg also loads the employee's current department and role.
func (s *Service) load(ctx context.Context, employeeID int64, withOrg bool) (*resolution, error) {
	if appErr := validation.ValidateEmployeeID(employeeID); appErr != nil {
		return nil, appErr
	}

	lg := logger.From(ctx)

	emp, err := s.catalog.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		lg.Error("failed to get employee", "employee_id", employeeID, "error", err)
		return nil, errors.NewInternalError("failed to load employee", err)
	}
	if emp == nil {
		return nil, errors.ErrEmployeeNotFound
	}

	rows, err := s.repo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		lg.Error("failed to get employee grants", "employee_id", employeeID, "error", err)
		return nil, errors.NewInternalError("failed to load employee permissions", err)
	}

	res := &resolution{employee: emp, grants: make([]*Grant, len(rows))}
	for i, row := range rows {
		res.grants[i] = FromDataModel(row)
	}
	if len(res.grants) == 0 {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		modules, err := s.catalog.GetModulesByIDs(gctx, DistinctModuleIDs(res.grants))
		if err != nil {
			return err
		}
		res.modules = catalog.IndexModules(modules)
		return nil
	})
	g.Go(func() error {
		groups, err := s.catalog.GetAllModuleGroups(gctx)
		if err != nil {
			return err
		}
		res.groups = catalog.IndexGroups(groups)
		return nil
	})
	if withOrg && emp.HasDepartment() {
		g.Go(func() error {
			dept, err := s.catalog.GetDepartmentByID(gctx, emp.DepartmentID)
			res.department = dept
			return err
		})
	}
	if withOrg && emp.HasRole() {
		g.Go(func() error {
			role, err := s.catalog.GetRoleByID(gctx, emp.RoleID)
			res.role = role
			return err
		})
	}
	if err := g.Wait(); err != nil {
		lg.Error("failed to load permission catalogs", "employee_id", employeeID, "error", err)
		return nil, errors.NewInternalError("failed to load permission catalogs", err)
	}

	return res, nil
}

// ResolveFlat returns one entry per grant, enriched with module names and the employee's
// live department and role names. Grants pointing at a missing module are dropped.
func (s *Service) ResolveFlat(ctx context.Context, employeeID int64) (*PermissionView, error) {
	res, err := s.load(ctx, employeeID, true)
	if err != nil {
		return nil, err
	}

	view := &PermissionView{
		EmployeeID: employeeID,
		Modules:    make([]PermissionEntry, 0, len(res.grants)),
	}

	var deptName, roleName string
	if res.department != nil {
		deptName = res.department.Name
	}
	if res.role != nil {
		roleName = res.role.Name
	}

	skipped := 0
	for _, grant := range res.grants {
		module, ok := res.modules[grant.ModuleID]
		if !ok {
			skipped++
			continue
		}
		view.Modules = append(view.Modules, PermissionEntry{
			ID:              grant.ID,
			ModuleID:        grant.ModuleID,
			AccessLevelID:   grant.AccessLevelID,
			ModuleName:      module.ModuleName,
			ModuleGroupID:   module.ModuleGroupID,
			ModuleGroupName: res.groups.GroupName(module.ModuleGroupID),
			DepartmentID:    res.employee.DepartmentID,
			DepartmentName:  deptName,
			RoleID:          res.employee.RoleID,
			DesignationName: roleName,
		})
	}

	s.logResolved(ctx, "flat", employeeID, len(res.grants), len(view.Modules), skipped)
	return view, nil
}

// ResolveMatrix emits one entry per access level in AccessLevels for every grant, regardless
// of the level the grant stores, so the grid always has a fixed width per module.
func (s *Service) ResolveMatrix(ctx context.Context, employeeID int64) (*PermissionMatrix, error) {
	res, err := s.load(ctx, employeeID, false)
	if err != nil {
		return nil, err
	}

	matrix := &PermissionMatrix{
		EmployeeID:   employeeID,
		AccessLevels: append([]int64(nil), AccessLevels...),
		Modules:      make([]MatrixEntry, 0, len(res.grants)*len(AccessLevels)),
	}

	skipped := 0
	for _, grant := range res.grants {
		module, ok := res.modules[grant.ModuleID]
		if !ok {
			skipped++
			continue
		}
		groupName := res.groups.GroupName(module.ModuleGroupID)
		for _, level := range AccessLevels {
			matrix.Modules = append(matrix.Modules, MatrixEntry{
				ID:              grant.ID,
				ModuleID:        grant.ModuleID,
				AccessLevelID:   level,
				ModuleName:      module.ModuleName,
				ModuleGroupID:   module.ModuleGroupID,
				ModuleGroupName: groupName,
				DepartmentID:    grant.DepartmentID,
				RoleName:        grant.RoleName,
			})
		}
	}

	s.logResolved(ctx, "matrix", employeeID, len(res.grants), len(matrix.Modules), skipped)
	return matrix, nil
}

func (s *Service) logResolved(ctx context.Context, view string, employeeID int64, grants, entries, skipped int) {
	if skipped > 0 {
		s.logger.DebugContext(ctx, "dropped grants referencing unknown modules",
			"view", view, "employee_id", employeeID, "skipped", skipped)
	}
	s.logger.DebugContext(ctx, "resolved employee permissions",
		"view", view, "employee_id", employeeID, "grants", grants, "entries", entries)
}
