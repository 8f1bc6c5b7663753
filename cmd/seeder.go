package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/retail-backoffice/internal/auth"
	catalogPostgres "github.com/frahmantamala/retail-backoffice/internal/catalog/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/core/database"
	employeeDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/employee"
	moduleDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/module"
	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/retail-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/retail-backoffice/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	clearData     bool
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed reference catalogs, sample employees and back-office operators for development and testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		setupLogger(cfg.Observability.Logging)
		lg := logger.L()

		gormDB, err := database.Open(cfg.Database, lg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		sqlxDB, err := database.SQLX(gormDB, cfg.Database.Driver)
		if err != nil {
			return err
		}
		defer sqlxDB.Close()

		return seedDatabase(cmd.Context(), gormDB, sqlxDB, seedOptions{
			Clear:         clearData,
			AdminPassword: adminPassword,
			BCryptCost:    cfg.Security.BCryptCost,
			Logger:        lg,
		})
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing employee permissions before seeding")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "password", "Password for the seeded operators")
}

type seedOptions struct {
	Clear         bool
	AdminPassword string
	BCryptCost    int
	Logger        *slog.Logger
}

var seedModuleGroups = []struct {
	Name    string
	Modules []string
}{
	{"Master Data", []string{"Departments", "Roles", "Holidays", "Leave Types", "States"}},
	{"Inventory", []string{"GRN Info", "Stock Transfer"}},
	{"Human Resources", []string{"Employees", "Employee Permissions"}},
	{"Reports", []string{"Sales Report"}},
}

var seedOperators = []struct {
	Email       string
	Name        string
	Permissions []string
}{
	{"admin@retail.local", "Back Office Admin", []string{auth.PermissionAdmin}},
	{"hr@retail.local", "HR Officer", []string{auth.PermissionManageEmployeePermissions}},
	{"auditor@retail.local", "Auditor", []string{auth.PermissionViewEmployeePermissions}},
}

var seedPermissionDescriptions = map[string]string{
	auth.PermissionAdmin:                     "full administrator",
	auth.PermissionManageEmployeePermissions: "Can replace employee module permissions",
	auth.PermissionViewEmployeePermissions:   "Can view employee module permissions",
}

// seedDatabase is idempotent: rows are matched by name or email before inserting.
func seedDatabase(ctx context.Context, db *gorm.DB, sqlxDB *sqlx.DB, opts seedOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := opts.Logger
	if lg == nil {
		lg = logger.L()
	}
	db = db.WithContext(ctx)

	if opts.Clear {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().
			Delete(&permissionDatamodel.EmployeePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear employee permissions: %w", err)
		}
		lg.Info("Cleared employee permissions")
	}

	moduleIDs := map[string]int64{}
	for _, g := range seedModuleGroups {
		group := moduleDatamodel.ModuleGroup{ModuleGroupName: g.Name}
		if err := db.Where(moduleDatamodel.ModuleGroup{ModuleGroupName: g.Name}).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("failed to seed module group %s: %w", g.Name, err)
		}
		for _, name := range g.Modules {
			m := moduleDatamodel.Module{ModuleName: name, ModuleGroupID: group.ID}
			if err := db.Where(moduleDatamodel.Module{ModuleName: name, ModuleGroupID: group.ID}).FirstOrCreate(&m).Error; err != nil {
				return fmt.Errorf("failed to seed module %s: %w", name, err)
			}
			moduleIDs[name] = m.ID
		}
	}
	lg.Info("Seeded module catalog", "modules", len(moduleIDs))

	departments := map[string]int64{}
	for _, name := range []string{"Sales", "Finance", "Warehouse"} {
		d := employeeDatamodel.Department{Name: name}
		if err := db.Where(employeeDatamodel.Department{Name: name}).FirstOrCreate(&d).Error; err != nil {
			return fmt.Errorf("failed to seed department %s: %w", name, err)
		}
		departments[name] = d.ID
	}

	roles := map[string]int64{}
	for _, name := range []string{"Sales Executive", "Store Manager", "Stock Keeper"} {
		r := employeeDatamodel.Role{Name: name}
		if err := db.Where(employeeDatamodel.Role{Name: name}).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
		roles[name] = r.ID
	}

	salesID, managerID := departments["Sales"], roles["Store Manager"]
	employee := employeeDatamodel.Employee{Name: "Rina Kartika", Email: "rina@retail.local", DepartmentID: &salesID, RoleID: &managerID}
	if err := db.Where(employeeDatamodel.Employee{Email: employee.Email}).FirstOrCreate(&employee).Error; err != nil {
		return fmt.Errorf("failed to seed employee: %w", err)
	}

	if err := seedOperatorAccounts(db, opts); err != nil {
		return err
	}

	// The sample snapshot goes through the same path as the API.
	service := permission.NewService(
		permissionPostgres.NewGrantRepository(db),
		catalogPostgres.NewReader(sqlxDB),
		nil,
		lg,
	)
	existing, err := service.ResolveFlat(ctx, employee.ID)
	if err != nil {
		return fmt.Errorf("failed to read sample employee permissions: %w", err)
	}
	if len(existing.Modules) > 0 {
		lg.Info("Sample employee already has permissions", "employee_id", employee.ID)
		return nil
	}

	inputs, err := json.Marshal([]map[string]int64{
		{"module_id": moduleIDs["Departments"], "access_level_id": permission.AccessLevelView},
		{"module_id": moduleIDs["GRN Info"], "access_level_id": permission.AccessLevelEdit},
		{"module_id": moduleIDs["Sales Report"], "access_level_id": permission.AccessLevelAdmin},
	})
	if err != nil {
		return err
	}
	grants, err := service.ReplaceGrants(ctx, employee.ID, &permission.ReplaceGrantsRequest{
		DepartmentID: &salesID,
		RoleName:     "Store Manager",
		Permissions:  inputs,
	})
	if err != nil {
		return fmt.Errorf("failed to seed sample employee permissions: %w", err)
	}
	lg.Info("Seeded sample employee permissions", "employee_id", employee.ID, "grants", len(grants))

	return nil
}

func seedOperatorAccounts(db *gorm.DB, opts seedOptions) error {
	cost := opts.BCryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), cost)
	if err != nil {
		return fmt.Errorf("failed to hash operator password: %w", err)
	}

	permissionIDs := map[string]int64{}
	for name, desc := range seedPermissionDescriptions {
		p := userDatamodel.Permission{Name: name, Description: desc}
		if err := db.Where(userDatamodel.Permission{Name: name}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("failed to insert permission %s: %w", name, err)
		}
		permissionIDs[name] = p.ID
	}

	for _, op := range seedOperators {
		u := userDatamodel.User{Email: op.Email, Name: op.Name, PasswordHash: string(hash), IsActive: true}
		if err := db.Where(userDatamodel.User{Email: op.Email}).FirstOrCreate(&u).Error; err != nil {
			return fmt.Errorf("failed to insert operator %s: %w", op.Email, err)
		}

		for _, name := range op.Permissions {
			up := userDatamodel.UserPermission{UserID: u.ID, PermissionID: permissionIDs[name]}
			if err := db.Where(userDatamodel.UserPermission{UserID: u.ID, PermissionID: permissionIDs[name]}).FirstOrCreate(&up).Error; err != nil {
				return fmt.Errorf("failed to grant permission %s to %s: %w", name, op.Email, err)
			}
		}
	}
	return nil
}
