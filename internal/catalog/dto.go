package catalog

type ModuleResponse struct {
	ID         int64  `json:"id"`
	ModuleName string `json:"module_name"`
}

type ModuleGroupResponse struct {
	ID              int64            `json:"id"`
	ModuleGroupName string           `json:"module_group_name"`
	Modules         []ModuleResponse `json:"modules"`
}

type ModuleGroupsResponse struct {
	ModuleGroups []ModuleGroupResponse `json:"module_groups"`
}
