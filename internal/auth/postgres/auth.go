package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/auth"
	userDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// GetCredentialsByEmail returns nil when no operator has the email.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &auth.Credentials{
		UserID:       user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
	}, nil
}

// GetUserWithPermissions returns nil for unknown or inactive operators.
func (r *Repository) GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error) {
	db := r.db.WithContext(ctx)

	var user userDatamodel.User
	err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var permissions []string
	err = db.Model(&userDatamodel.Permission{}).
		Select("permissions.name").
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, err
	}

	return &internal.User{
		ID:          user.ID,
		Email:       user.Email,
		Permissions: permissions,
	}, nil
}
