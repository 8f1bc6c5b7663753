package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

type checkFunc func(ctx context.Context, userPermissions []string) (bool, error)

// Middleware requires a single named permission.
func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return ra.require(permission, func(ctx context.Context, userPermissions []string) (bool, error) {
		return ra.checker.HasPermission(ctx, userPermissions, permission)
	})
}

func (ra *RBACAuthorization) RequireViewEmployeePermissions() func(http.Handler) http.Handler {
	return ra.require(PermissionViewEmployeePermissions, ra.checker.CanViewEmployeePermissions)
}

func (ra *RBACAuthorization) RequireManageEmployeePermissions() func(http.Handler) http.Handler {
	return ra.require(PermissionManageEmployeePermissions, ra.checker.CanManageEmployeePermissions)
}

func (ra *RBACAuthorization) require(name string, check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
				ra.HandleServiceError(w, r, internal.ErrInvalidToken)
				return
			}

			allowed, err := check(r.Context(), user.Permissions)
			if err != nil {
				ra.HandleServiceError(w, r, internal.NewInternalError("authorization check failed", err))
				return
			}

			if !allowed {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permission", name,
					"user_permissions", user.Permissions)
				ra.HandleServiceError(w, r, internal.ErrInsufficientAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
