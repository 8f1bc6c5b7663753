package permission

import (
	"time"

	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
)

// Access levels are a fixed ordered set, not a catalog table.
const (
	AccessLevelView  int64 = 1
	AccessLevelEdit  int64 = 2
	AccessLevelAdmin int64 = 3
)

// AccessLevels is the enumeration the matrix view expands every grant against.
var AccessLevels = []int64{AccessLevelView, AccessLevelEdit, AccessLevelAdmin}

// Grant is one stored (employee, module, access level) row. DepartmentID and RoleName are
// the organisational context recorded when the grant was written.
type Grant struct {
	ID            int64
	EmployeeID    int64
	ModuleID      int64
	AccessLevelID int64
	DepartmentID  *int64
	RoleName      string
	CreatedAt     time.Time
}

func (g *Grant) ToResponse() GrantResponse {
	return GrantResponse{
		ID:            g.ID,
		EmployeeID:    g.EmployeeID,
		ModuleID:      g.ModuleID,
		AccessLevelID: g.AccessLevelID,
		DepartmentID:  g.DepartmentID,
		RoleName:      g.RoleName,
		CreatedAt:     g.CreatedAt,
	}
}

// NewGrants builds one grant per input, all carrying the same org snapshot.
func NewGrants(employeeID int64, departmentID *int64, roleName string, inputs []PermissionInput) []*Grant {
	grants := make([]*Grant, 0, len(inputs))
	for _, in := range inputs {
		grants = append(grants, &Grant{
			EmployeeID:    employeeID,
			ModuleID:      *in.ModuleID,
			AccessLevelID: *in.AccessLevelID,
			DepartmentID:  departmentID,
			RoleName:      roleName,
		})
	}
	return grants
}

func ToDataModel(g *Grant) *permissionDatamodel.EmployeePermission {
	return &permissionDatamodel.EmployeePermission{
		ID:            g.ID,
		EmployeeID:    g.EmployeeID,
		ModuleID:      g.ModuleID,
		AccessLevelID: g.AccessLevelID,
		DepartmentID:  g.DepartmentID,
		RoleName:      g.RoleName,
		CreatedAt:     g.CreatedAt,
	}
}

func FromDataModel(p *permissionDatamodel.EmployeePermission) *Grant {
	return &Grant{
		ID:            p.ID,
		EmployeeID:    p.EmployeeID,
		ModuleID:      p.ModuleID,
		AccessLevelID: p.AccessLevelID,
		DepartmentID:  p.DepartmentID,
		RoleName:      p.RoleName,
		CreatedAt:     p.CreatedAt,
	}
}

// DistinctModuleIDs returns module ids in first-seen order.
func DistinctModuleIDs(grants []*Grant) []int64 {
	seen := make(map[int64]struct{}, len(grants))
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		if _, ok := seen[g.ModuleID]; ok {
			continue
		}
		seen[g.ModuleID] = struct{}{}
		ids = append(ids, g.ModuleID)
	}
	return ids
}
