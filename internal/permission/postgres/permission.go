package postgres

import (
	"context"

	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) permission.RepositoryAPI {
	return &GrantRepository{db: db}
}

// ReplaceForEmployee permanently removes the employee's grants and inserts rows in one
// transaction. Any error rolls back both steps.
func (r *GrantRepository) ReplaceForEmployee(ctx context.Context, employeeID int64, rows []*permissionDatamodel.EmployeePermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("employee_id = ?", employeeID).
			Delete(&permissionDatamodel.EmployeePermission{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

func (r *GrantRepository) GetByEmployeeID(ctx context.Context, employeeID int64) ([]*permissionDatamodel.EmployeePermission, error) {
	var rows []*permissionDatamodel.EmployeePermission
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
