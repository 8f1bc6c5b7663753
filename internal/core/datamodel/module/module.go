package module

type ModuleGroup struct {
	ID              int64  `gorm:"primaryKey"`
	ModuleGroupName string `gorm:"column:module_group_name;not null;uniqueIndex"`
}

func (ModuleGroup) TableName() string {
	return "module_groups"
}

type Module struct {
	ID            int64  `gorm:"primaryKey"`
	ModuleName    string `gorm:"column:module_name;not null"`
	ModuleGroupID int64  `gorm:"column:module_group_id;not null;index"`
}

func (Module) TableName() string {
	return "modules"
}
