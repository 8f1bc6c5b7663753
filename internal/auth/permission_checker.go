package auth

import "context"

const (
	PermissionViewEmployeePermissions   = "view_employee_permissions"
	PermissionManageEmployeePermissions = "manage_employee_permissions"
	PermissionAdmin                     = "admin"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error)
	CanViewEmployeePermissions(ctx context.Context, userPermissions []string) (bool, error)
	CanManageEmployeePermissions(ctx context.Context, userPermissions []string) (bool, error)
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

// HasPermission also grants everything to admin.
func (c *DefaultPermissionChecker) HasPermission(_ context.Context, userPermissions []string, permission string) (bool, error) {
	return hasAnyPermission(userPermissions, permission, PermissionAdmin), nil
}

// CanViewEmployeePermissions is satisfied by either the view or the manage permission.
func (c *DefaultPermissionChecker) CanViewEmployeePermissions(_ context.Context, userPermissions []string) (bool, error) {
	return hasAnyPermission(userPermissions,
		PermissionViewEmployeePermissions,
		PermissionManageEmployeePermissions,
		PermissionAdmin,
	), nil
}

func (c *DefaultPermissionChecker) CanManageEmployeePermissions(_ context.Context, userPermissions []string) (bool, error) {
	return hasAnyPermission(userPermissions, PermissionManageEmployeePermissions, PermissionAdmin), nil
}

func hasAnyPermission(userPermissions []string, requiredPermissions ...string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}
