package permission

import (
	"time"

	"gorm.io/gorm"
)

// EmployeePermission is one stored grant. DepartmentID and RoleName are copied from the
// replace request at write time and are never refreshed from the employee record.
type EmployeePermission struct {
	ID            int64          `gorm:"primaryKey"`
	EmployeeID    int64          `gorm:"column:employee_id;not null;index"`
	ModuleID      int64          `gorm:"column:module_id;not null"`
	AccessLevelID int64          `gorm:"column:access_level_id;not null"`
	DepartmentID  *int64         `gorm:"column:department_id"`
	RoleName      string         `gorm:"column:role_name"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (EmployeePermission) TableName() string {
	return "employee_permissions"
}
