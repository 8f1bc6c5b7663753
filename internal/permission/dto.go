package permission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	errors "github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/core/common/validation"
)

// ReplaceGrantsRequest is the PUT body. Permissions stays raw so a missing value, a
// non-array value and an empty array can each be reported distinctly.
type ReplaceGrantsRequest struct {
	DepartmentID *int64          `json:"department_id"`
	RoleName     string          `json:"role_name"`
	Permissions  json.RawMessage `json:"permissions"`
}

type PermissionInput struct {
	ModuleID      *int64 `json:"module_id"`
	AccessLevelID *int64 `json:"access_level_id"`
}

// ParsePermissions decodes and validates the permissions list. access_level_id is only
// required to be present; its value is stored as given.
func (r *ReplaceGrantsRequest) ParsePermissions() ([]PermissionInput, *errors.AppError) {
	raw := bytes.TrimSpace(r.Permissions)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.ErrPermissionsRequired
	}
	if raw[0] != '[' {
		return nil, errors.ErrPermissionsNotArray
	}

	var inputs []PermissionInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, errors.NewValidationError("permissions entries must be objects with numeric module_id and access_level_id", errors.ErrCodeInvalidPermissionEntry).WithCause(err)
	}
	if len(inputs) == 0 {
		return nil, errors.ErrPermissionsEmpty
	}

	validator := validation.NewValidator()
	for i, in := range inputs {
		validator.Field(fmt.Sprintf("permissions[%d].module_id", i), in.ModuleID).
			Required().
			Positive(errors.ErrCodeInvalidPermissionEntry)
		validator.Field(fmt.Sprintf("permissions[%d].access_level_id", i), in.AccessLevelID).
			Required()
	}
	if appErr := validator.Validate(); appErr != nil {
		return nil, appErr
	}

	return inputs, nil
}

type GrantResponse struct {
	ID            int64     `json:"id"`
	EmployeeID    int64     `json:"employee_id"`
	ModuleID      int64     `json:"module_id"`
	AccessLevelID int64     `json:"access_level_id"`
	DepartmentID  *int64    `json:"department_id"`
	RoleName      string    `json:"role_name"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReplaceGrantsResponse struct {
	EmployeeID  int64           `json:"employee_id"`
	Permissions []GrantResponse `json:"permissions"`
}

// PermissionEntry is one row of the flat view. Department and designation come from the
// employee's current record, not from the stored grant.
type PermissionEntry struct {
	ID              int64  `json:"id"`
	ModuleID        int64  `json:"module_id"`
	AccessLevelID   int64  `json:"access_level_id"`
	ModuleName      string `json:"module_name"`
	ModuleGroupID   int64  `json:"module_group_id"`
	ModuleGroupName string `json:"module_group_name"`
	DepartmentID    int64  `json:"department_id"`
	DepartmentName  string `json:"department_name"`
	RoleID          int64  `json:"role_id"`
	DesignationName string `json:"designation_name"`
}

type PermissionView struct {
	EmployeeID int64             `json:"employee_id"`
	Modules    []PermissionEntry `json:"modules"`
}

// MatrixEntry is one (grant, access level) cell of the permission grid.
type MatrixEntry struct {
	ID              int64  `json:"id"`
	ModuleID        int64  `json:"module_id"`
	AccessLevelID   int64  `json:"access_level_id"`
	ModuleName      string `json:"module_name"`
	ModuleGroupID   int64  `json:"module_group_id"`
	ModuleGroupName string `json:"module_group_name"`
	DepartmentID    *int64 `json:"department_id"`
	RoleName        string `json:"role_name"`
}

type PermissionMatrix struct {
	EmployeeID   int64         `json:"employee_id"`
	AccessLevels []int64       `json:"access_levels"`
	Modules      []MatrixEntry `json:"modules"`
}
