package catalog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/retail-backoffice/internal/transport"
)

type ServiceAPI interface {
	ListModuleGroups(ctx context.Context) ([]ModuleGroupResponse, error)
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

func (h *Handler) GetModuleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListModuleGroups(r.Context())
	if err != nil {
		h.Logger.Error("GetModuleGroups: failed to get module groups", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get module groups")
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Module groups retrieved", ModuleGroupsResponse{
		ModuleGroups: groups,
	})
}
