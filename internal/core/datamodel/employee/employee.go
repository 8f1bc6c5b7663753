package employee

import (
	"time"

	"gorm.io/gorm"
)

// Employee rows are owned by the employee-management screens; this service only reads them.
type Employee struct {
	ID           int64          `gorm:"primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email"`
	DepartmentID *int64         `gorm:"column:department_id;index"`
	RoleID       *int64         `gorm:"column:role_id;index"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Employee) TableName() string {
	return "employees"
}

type Department struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Department) TableName() string {
	return "departments"
}

// Role is the employee designation (e.g. "Sales Executive").
type Role struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Role) TableName() string {
	return "roles"
}
