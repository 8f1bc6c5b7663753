package catalog

// Employee carries the live organisational context. DepartmentID and RoleID are zero when unset.
type Employee struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	RoleID       int64  `db:"role_id" json:"role_id"`
}

func (e *Employee) HasDepartment() bool {
	return e.DepartmentID > 0
}

func (e *Employee) HasRole() bool {
	return e.RoleID > 0
}

type Department struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Module struct {
	ID            int64  `db:"id" json:"id"`
	ModuleName    string `db:"module_name" json:"module_name"`
	ModuleGroupID int64  `db:"module_group_id" json:"module_group_id"`
}

type ModuleGroup struct {
	ID              int64  `db:"id" json:"id"`
	ModuleGroupName string `db:"module_group_name" json:"module_group_name"`
}

// ModuleIndex and GroupIndex key catalog rows by id for in-memory joins.
type ModuleIndex map[int64]*Module

type GroupIndex map[int64]*ModuleGroup

func IndexModules(modules []*Module) ModuleIndex {
	idx := make(ModuleIndex, len(modules))
	for _, m := range modules {
		idx[m.ID] = m
	}
	return idx
}

func IndexGroups(groups []*ModuleGroup) GroupIndex {
	idx := make(GroupIndex, len(groups))
	for _, g := range groups {
		idx[g.ID] = g
	}
	return idx
}

// GroupName returns "" for an unknown group id.
func (g GroupIndex) GroupName(id int64) string {
	if group, ok := g[id]; ok {
		return group.ModuleGroupName
	}
	return ""
}
