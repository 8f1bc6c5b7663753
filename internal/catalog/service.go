package catalog

import (
	"context"
	"log/slog"
	"sort"
)

// ReaderAPI is the read-only view over the employee, module and org catalogs.
// Single-row lookups return nil, nil when the row does not exist.
type ReaderAPI interface {
	GetEmployeeByID(ctx context.Context, id int64) (*Employee, error)
	GetModulesByIDs(ctx context.Context, ids []int64) ([]*Module, error)
	GetAllModules(ctx context.Context) ([]*Module, error)
	GetAllModuleGroups(ctx context.Context) ([]*ModuleGroup, error)
	GetDepartmentByID(ctx context.Context, id int64) (*Department, error)
	GetRoleByID(ctx context.Context, id int64) (*Role, error)
}

type Service struct {
	reader ReaderAPI
	logger *slog.Logger
}

func NewService(reader ReaderAPI, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		logger: logger,
	}
}

// ListModuleGroups returns every group with its modules, ordered by group id then module id.
// Modules pointing at a group that does not exist are not listed.
func (s *Service) ListModuleGroups(ctx context.Context) ([]ModuleGroupResponse, error) {
	groups, err := s.reader.GetAllModuleGroups(ctx)
	if err != nil {
		s.logger.Error("failed to get module groups from repository", "error", err)
		return nil, err
	}

	modules, err := s.reader.GetAllModules(ctx)
	if err != nil {
		s.logger.Error("failed to get modules from repository", "error", err)
		return nil, err
	}

	byGroup := make(map[int64][]ModuleResponse, len(groups))
	for _, m := range modules {
		byGroup[m.ModuleGroupID] = append(byGroup[m.ModuleGroupID], ModuleResponse{
			ID:         m.ID,
			ModuleName: m.ModuleName,
		})
	}

	responses := make([]ModuleGroupResponse, 0, len(groups))
	for _, g := range groups {
		mods := byGroup[g.ID]
		if mods == nil {
			mods = []ModuleResponse{}
		}
		sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
		responses = append(responses, ModuleGroupResponse{
			ID:              g.ID,
			ModuleGroupName: g.ModuleGroupName,
			Modules:         mods,
		})
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })

	s.logger.Info("retrieved module groups", "groups", len(responses), "modules", len(modules))
	return responses, nil
}
