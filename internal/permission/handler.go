package permission

import (
	"context"
	"encoding/json"
	"net/http"

	errors "github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ReplaceGrants(ctx context.Context, employeeID int64, req *ReplaceGrantsRequest) ([]*Grant, error)
	ResolveFlat(ctx context.Context, employeeID int64) (*PermissionView, error)
	ResolveMatrix(ctx context.Context, employeeID int64) (*PermissionMatrix, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetPermissions handles GET /employee-permissions?employee_id=
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeIDFromQuery(w, r)
	if !ok {
		return
	}

	view, err := h.Service.ResolveFlat(r.Context(), employeeID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Employee permissions retrieved", view)
}

// GetPermissionMatrix handles GET /employee-permissions/matrix?employee_id=
func (h *Handler) GetPermissionMatrix(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeIDFromQuery(w, r)
	if !ok {
		return
	}

	matrix, err := h.Service.ResolveMatrix(r.Context(), employeeID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Employee permission matrix retrieved", matrix)
}

// ReplacePermissions handles PUT /employee-permissions/{employee_id}
func (h *Handler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := transport.ParseID(chi.URLParam(r, "employee_id"))
	if !ok {
		h.HandleServiceError(w, r, errors.NewValidationFieldError("employee_id", "employee_id must be a positive integer", errors.ErrCodeInvalidEmployeeID))
		return
	}

	var req ReplaceGrantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleServiceError(w, r, errors.NewValidationError("invalid request body", errors.ErrCodeInvalidRequestBody).WithCause(err))
		return
	}

	grants, err := h.Service.ReplaceGrants(r.Context(), employeeID, &req)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp := ReplaceGrantsResponse{
		EmployeeID:  employeeID,
		Permissions: make([]GrantResponse, 0, len(grants)),
	}
	for _, g := range grants {
		resp.Permissions = append(resp.Permissions, g.ToResponse())
	}

	h.WriteSuccess(w, http.StatusOK, "Employee permissions replaced", resp)
}

func (h *Handler) employeeIDFromQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("employee_id")
	if raw == "" {
		h.HandleServiceError(w, r, errors.NewValidationFieldError("employee_id", "employee_id is required", errors.ErrCodeInvalidEmployeeID))
		return 0, false
	}
	employeeID, ok := transport.ParseID(raw)
	if !ok {
		h.HandleServiceError(w, r, errors.NewValidationFieldError("employee_id", "employee_id must be a positive integer", errors.ErrCodeInvalidEmployeeID))
		return 0, false
	}
	return employeeID, true
}
