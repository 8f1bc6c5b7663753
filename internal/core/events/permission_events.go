package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEmployeePermissionsReplaced = "employee_permissions.replaced"
)

type EmployeePermissionsReplacedEvent struct {
	BaseEvent
	EmployeeID   int64  `json:"employee_id"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	RoleName     string `json:"role_name"`
	GrantCount   int    `json:"grant_count"`
}

func NewEmployeePermissionsReplacedEvent(employeeID int64, departmentID *int64, roleName string, grantCount int) *EmployeePermissionsReplacedEvent {
	return &EmployeePermissionsReplacedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEmployeePermissionsReplaced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id":   employeeID,
				"department_id": departmentID,
				"role_name":     roleName,
				"grant_count":   grantCount,
			},
		},
		EmployeeID:   employeeID,
		DepartmentID: departmentID,
		RoleName:     roleName,
		GrantCount:   grantCount,
	}
}

// LogPermissionsReplaced writes one structured line per replaced grant set.
func LogPermissionsReplaced(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(*EmployeePermissionsReplacedEvent)
		if !ok {
			return nil
		}
		logger.InfoContext(ctx, "employee permissions replaced",
			"event_id", e.EventID(),
			"employee_id", e.EmployeeID,
			"role_name", e.RoleName,
			"grant_count", e.GrantCount,
			"occurred_at", e.OccurredAt())
		return nil
	}
}
