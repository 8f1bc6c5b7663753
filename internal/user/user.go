package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/user"
)

// User is a back-office operator account.
type User struct {
	ID          int64
	Email       string
	Name        string
	IsActive    bool
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Permissions: []string{},
	}
}

func (u *User) ToResponse() UserResponse {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
	}
}
