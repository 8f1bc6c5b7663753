package permission_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	apperrors "github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/catalog"
	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/retail-backoffice/internal/core/events"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestPermissionService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Permission Suite")
}

// MockRepository implements permission.RepositoryAPI in memory
type MockRepository struct {
	mu           sync.Mutex
	rows         map[int64][]*permissionDatamodel.EmployeePermission
	nextID       int64
	replaceCalls int
	getCalls     int
	shouldFail   bool
	failError    error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		rows:   make(map[int64][]*permissionDatamodel.EmployeePermission),
		nextID: 1,
	}
}

func (m *MockRepository) ReplaceForEmployee(_ context.Context, employeeID int64, rows []*permissionDatamodel.EmployeePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.shouldFail {
		return m.failError
	}

	stored := make([]*permissionDatamodel.EmployeePermission, 0, len(rows))
	for _, row := range rows {
		row.ID = m.nextID
		m.nextID++
		cp := *row
		stored = append(stored, &cp)
	}
	m.rows[employeeID] = stored
	return nil
}

func (m *MockRepository) GetByEmployeeID(_ context.Context, employeeID int64) ([]*permissionDatamodel.EmployeePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.shouldFail {
		return nil, m.failError
	}
	return m.rows[employeeID], nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) AddGrant(row permissionDatamodel.EmployeePermission) {
	if row.ID == 0 {
		row.ID = m.nextID
		m.nextID++
	}
	m.rows[row.EmployeeID] = append(m.rows[row.EmployeeID], &row)
}

// MockCatalog implements permission.CatalogAPI in memory
type MockCatalog struct {
	employees   map[int64]*catalog.Employee
	modules     map[int64]*catalog.Module
	groups      []*catalog.ModuleGroup
	departments map[int64]*catalog.Department
	roles       map[int64]*catalog.Role
	failModules error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		employees:   make(map[int64]*catalog.Employee),
		modules:     make(map[int64]*catalog.Module),
		departments: make(map[int64]*catalog.Department),
		roles:       make(map[int64]*catalog.Role),
	}
}

func (m *MockCatalog) GetEmployeeByID(_ context.Context, id int64) (*catalog.Employee, error) {
	return m.employees[id], nil
}

func (m *MockCatalog) GetModulesByIDs(_ context.Context, ids []int64) ([]*catalog.Module, error) {
	if m.failModules != nil {
		return nil, m.failModules
	}
	var out []*catalog.Module
	for _, id := range ids {
		if mod, ok := m.modules[id]; ok {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *MockCatalog) GetAllModuleGroups(_ context.Context) ([]*catalog.ModuleGroup, error) {
	return m.groups, nil
}

func (m *MockCatalog) GetDepartmentByID(_ context.Context, id int64) (*catalog.Department, error) {
	return m.departments[id], nil
}

func (m *MockCatalog) GetRoleByID(_ context.Context, id int64) (*catalog.Role, error) {
	return m.roles[id], nil
}

type MockPublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func replaceRequest(departmentID *int64, roleName string, permissions string) *permission.ReplaceGrantsRequest {
	req := &permission.ReplaceGrantsRequest{
		DepartmentID: departmentID,
		RoleName:     roleName,
	}
	if permissions != "" {
		req.Permissions = json.RawMessage(permissions)
	}
	return req
}

func expectAppError(err error, status int, code apperrors.ErrorCode) {
	appErr, ok := apperrors.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), fmt.Sprintf("expected AppError, got %v", err))
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	ExpectWithOffset(1, appErr.Code).To(Equal(code))
}

var _ = Describe("Employee Permission Service", func() {
	var (
		repo      *MockRepository
		cat       *MockCatalog
		publisher *MockPublisher
		service   *permission.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		cat = NewMockCatalog()
		publisher = &MockPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = permission.NewService(repo, cat, publisher, logger)

		cat.employees[7] = &catalog.Employee{ID: 7, Name: "Rina", DepartmentID: 6, RoleID: 2}
		cat.employees[8] = &catalog.Employee{ID: 8, Name: "Budi"}
		cat.departments[5] = &catalog.Department{ID: 5, Name: "Sales"}
		cat.departments[6] = &catalog.Department{ID: 6, Name: "Warehouse"}
		cat.roles[2] = &catalog.Role{ID: 2, Name: "Store Supervisor"}
		cat.groups = []*catalog.ModuleGroup{
			{ID: 1, ModuleGroupName: "Master Data"},
			{ID: 2, ModuleGroupName: "Inventory"},
		}
		cat.modules[3] = &catalog.Module{ID: 3, ModuleName: "Departments", ModuleGroupID: 1}
		cat.modules[4] = &catalog.Module{ID: 4, ModuleName: "GRN Info", ModuleGroupID: 2}
		cat.modules[9] = &catalog.Module{ID: 9, ModuleName: "Orphan", ModuleGroupID: 42}
	})

	Describe("ReplaceGrants", func() {
		Context("when the permissions field is invalid", func() {
			It("should reject a missing permissions field", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(int64Ptr(5), "Sales", ""))
				Expect(errors.Is(err, apperrors.ErrPermissionsRequired)).To(BeTrue())
				Expect(repo.replaceCalls).To(Equal(0))
			})

			It("should reject a null permissions field", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", "null"))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodePermissionsRequired)
			})

			It("should reject a non-array permissions field", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `{"module_id": 3, "access_level_id": 1}`))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodePermissionsNotArray)
				Expect(repo.replaceCalls).To(Equal(0))
			})

			It("should reject an empty permissions array", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[]`))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodePermissionsEmpty)
				Expect(repo.replaceCalls).To(Equal(0))
			})

			It("should reject entries without access_level_id", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 3}]`))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodeValidationFailed)

				appErr, _ := apperrors.IsAppError(err)
				details := appErr.Details.(apperrors.ValidationErrors)
				Expect(details.Errors).To(HaveLen(1))
				Expect(details.Errors[0].Field).To(Equal("permissions[0].access_level_id"))
				Expect(repo.replaceCalls).To(Equal(0))
			})

			It("should reject entries with a non-numeric module_id", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": "x", "access_level_id": 1}]`))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodeInvalidPermissionEntry)
			})

			It("should reject a non-positive employee id", func() {
				_, err := service.ReplaceGrants(ctx, 0, replaceRequest(nil, "", `[{"module_id": 3, "access_level_id": 1}]`))
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodeValidationFailed)
				Expect(repo.replaceCalls).To(Equal(0))
			})
		})

		Context("when the request is valid", func() {
			It("should store one grant per permission with the org snapshot", func() {
				grants, err := service.ReplaceGrants(ctx, 7, replaceRequest(int64Ptr(5), "Sales",
					`[{"module_id": 3, "access_level_id": 2}, {"module_id": 4, "access_level_id": 1}]`))
				Expect(err).NotTo(HaveOccurred())
				Expect(grants).To(HaveLen(2))

				for _, g := range grants {
					Expect(g.ID).To(BeNumerically(">", 0))
					Expect(g.EmployeeID).To(Equal(int64(7)))
					Expect(*g.DepartmentID).To(Equal(int64(5)))
					Expect(g.RoleName).To(Equal("Sales"))
				}
				Expect(grants[0].ModuleID).To(Equal(int64(3)))
				Expect(grants[0].AccessLevelID).To(Equal(int64(2)))
			})

			It("should accept access levels outside the known enumeration", func() {
				grants, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 3, "access_level_id": 99}]`))
				Expect(err).NotTo(HaveOccurred())
				Expect(grants[0].AccessLevelID).To(Equal(int64(99)))
			})

			It("should publish a replaced event", func() {
				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(int64Ptr(5), "Sales", `[{"module_id": 3, "access_level_id": 2}]`))
				Expect(err).NotTo(HaveOccurred())

				Expect(publisher.published).To(HaveLen(1))
				event, ok := publisher.published[0].(*events.EmployeePermissionsReplacedEvent)
				Expect(ok).To(BeTrue())
				Expect(event.EmployeeID).To(Equal(int64(7)))
				Expect(event.GrantCount).To(Equal(1))
				Expect(event.EventType()).To(Equal(events.EventTypeEmployeePermissionsReplaced))
			})
		})

		Context("when the store fails", func() {
			It("should map a foreign key violation to an unknown reference error", func() {
				repo.SetShouldFail(true, fmt.Errorf("insert: %w", gorm.ErrForeignKeyViolated))

				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 300, "access_level_id": 1}]`))
				Expect(errors.Is(err, apperrors.ErrUnknownReference)).To(BeTrue())
				expectAppError(err, http.StatusBadRequest, apperrors.ErrCodeUnknownReference)
				Expect(publisher.published).To(BeEmpty())
			})

			It("should return an internal error for other failures", func() {
				repo.SetShouldFail(true, errors.New("connection reset"))

				_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 3, "access_level_id": 1}]`))
				expectAppError(err, http.StatusInternalServerError, apperrors.ErrCodeInternal)
				Expect(err.Error()).To(ContainSubstring("connection reset"))
				Expect(publisher.published).To(BeEmpty())
			})
		})
	})

	Describe("ResolveFlat", func() {
		It("should return not found without reading grants for an unknown employee", func() {
			_, err := service.ResolveFlat(ctx, 404)
			Expect(errors.Is(err, apperrors.ErrEmployeeNotFound)).To(BeTrue())
			expectAppError(err, http.StatusNotFound, apperrors.ErrCodeEmployeeNotFound)
			Expect(repo.getCalls).To(Equal(0))
		})

		It("should return an empty module list for an employee without grants", func() {
			view, err := service.ResolveFlat(ctx, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.EmployeeID).To(Equal(int64(8)))
			Expect(view.Modules).NotTo(BeNil())
			Expect(view.Modules).To(BeEmpty())
		})

		It("should use the employee's live department and role names", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 3, AccessLevelID: 2, DepartmentID: int64Ptr(5), RoleName: "Sales"})

			view, err := service.ResolveFlat(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Modules).To(HaveLen(1))

			entry := view.Modules[0]
			Expect(entry.ModuleID).To(Equal(int64(3)))
			Expect(entry.AccessLevelID).To(Equal(int64(2)))
			Expect(entry.ModuleName).To(Equal("Departments"))
			Expect(entry.ModuleGroupID).To(Equal(int64(1)))
			Expect(entry.ModuleGroupName).To(Equal("Master Data"))
			Expect(entry.DepartmentID).To(Equal(int64(6)))
			Expect(entry.DepartmentName).To(Equal("Warehouse"))
			Expect(entry.RoleID).To(Equal(int64(2)))
			Expect(entry.DesignationName).To(Equal("Store Supervisor"))
		})

		It("should drop grants that reference an unknown module", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 3, AccessLevelID: 1})
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 1000, AccessLevelID: 1})

			view, err := service.ResolveFlat(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Modules).To(HaveLen(1))
			Expect(view.Modules[0].ModuleID).To(Equal(int64(3)))
		})

		It("should keep modules whose group is missing with an empty group name", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 9, AccessLevelID: 1})

			view, err := service.ResolveFlat(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Modules).To(HaveLen(1))
			Expect(view.Modules[0].ModuleGroupID).To(Equal(int64(42)))
			Expect(view.Modules[0].ModuleGroupName).To(BeEmpty())
		})

		It("should leave org names empty for an employee without department or role", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 8, ModuleID: 4, AccessLevelID: 3})

			view, err := service.ResolveFlat(ctx, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Modules[0].DepartmentName).To(BeEmpty())
			Expect(view.Modules[0].DesignationName).To(BeEmpty())
		})

		It("should return an internal error when a catalog read fails", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 3, AccessLevelID: 1})
			cat.failModules = errors.New("catalog unavailable")

			_, err := service.ResolveFlat(ctx, 7)
			expectAppError(err, http.StatusInternalServerError, apperrors.ErrCodeInternal)
		})

		It("should return an internal error when the grant store fails", func() {
			repo.SetShouldFail(true, errors.New("database error"))

			_, err := service.ResolveFlat(ctx, 7)
			expectAppError(err, http.StatusInternalServerError, apperrors.ErrCodeInternal)
		})
	})

	Describe("ResolveMatrix", func() {
		It("should expand a single grant into one entry per access level", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{ID: 11, EmployeeID: 7, ModuleID: 3, AccessLevelID: 2, DepartmentID: int64Ptr(5), RoleName: "Sales"})

			matrix, err := service.ResolveMatrix(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(matrix.AccessLevels).To(Equal([]int64{1, 2, 3}))
			Expect(matrix.Modules).To(HaveLen(3))

			levels := make([]int64, 0, 3)
			for _, entry := range matrix.Modules {
				Expect(entry.ID).To(Equal(int64(11)))
				Expect(entry.ModuleID).To(Equal(int64(3)))
				Expect(entry.ModuleName).To(Equal("Departments"))
				Expect(entry.ModuleGroupName).To(Equal("Master Data"))
				Expect(*entry.DepartmentID).To(Equal(int64(5)))
				Expect(entry.RoleName).To(Equal("Sales"))
				levels = append(levels, entry.AccessLevelID)
			}
			Expect(levels).To(Equal([]int64{1, 2, 3}))
		})

		It("should return not found for an unknown employee", func() {
			_, err := service.ResolveMatrix(ctx, 404)
			Expect(errors.Is(err, apperrors.ErrEmployeeNotFound)).To(BeTrue())
			Expect(repo.getCalls).To(Equal(0))
		})

		It("should return an empty matrix for an employee without grants", func() {
			matrix, err := service.ResolveMatrix(ctx, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(matrix.Modules).NotTo(BeNil())
			Expect(matrix.Modules).To(BeEmpty())
		})

		It("should drop grants that reference an unknown module", func() {
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 3, AccessLevelID: 1})
			repo.AddGrant(permissionDatamodel.EmployeePermission{EmployeeID: 7, ModuleID: 1000, AccessLevelID: 1})

			matrix, err := service.ResolveMatrix(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(matrix.Modules).To(HaveLen(3))
		})
	})

	Describe("Replace then resolve", func() {
		It("should revoke modules omitted from the next replace", func() {
			_, err := service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 3, "access_level_id": 1}, {"module_id": 4, "access_level_id": 1}]`))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ReplaceGrants(ctx, 7, replaceRequest(nil, "", `[{"module_id": 3, "access_level_id": 1}]`))
			Expect(err).NotTo(HaveOccurred())

			view, err := service.ResolveFlat(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Modules).To(HaveLen(1))
			Expect(view.Modules[0].ModuleID).To(Equal(int64(3)))
		})
	})
})
