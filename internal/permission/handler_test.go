package permission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/frahmantamala/retail-backoffice/db/migrations"
	"github.com/frahmantamala/retail-backoffice/internal"
	catalogPostgres "github.com/frahmantamala/retail-backoffice/internal/catalog/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/core/database"
	employeeDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/employee"
	moduleDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/module"
	permissionDatamodel "github.com/frahmantamala/retail-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/retail-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func openTestDB() *gorm.DB {
	db, err := database.Open(internal.DatabaseConfig{
		Driver:       internal.DriverSQLite,
		Source:       ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, nil)
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	Expect(migrations.Up(context.Background(), sqlDB, internal.DriverSQLite, migrations.Options{Quiet: true})).To(Succeed())
	return db
}

var _ = Describe("Employee Permission Handler Integration", func() {
	var (
		db       *gorm.DB
		router   *chi.Mux
		sales    employeeDatamodel.Department
		finance  employeeDatamodel.Department
		cashier  employeeDatamodel.Role
		employee employeeDatamodel.Employee
		loner    employeeDatamodel.Employee
		modA     moduleDatamodel.Module
		modB     moduleDatamodel.Module
	)

	do := func(method, target string, body string) (*httptest.ResponseRecorder, envelope) {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req := httptest.NewRequest(method, target, reader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var env envelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		Expect(env.StatusCode).To(Equal(w.Code))
		return w, env
	}

	grantIDs := func(rows []permissionDatamodel.EmployeePermission) []int64 {
		ids := make([]int64, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		return ids
	}

	storedGrants := func(employeeID int64) []permissionDatamodel.EmployeePermission {
		var rows []permissionDatamodel.EmployeePermission
		Expect(db.Unscoped().Where("employee_id = ?", employeeID).Order("id").Find(&rows).Error).To(Succeed())
		return rows
	}

	BeforeEach(func() {
		db = openTestDB()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		sales = employeeDatamodel.Department{Name: "Sales"}
		finance = employeeDatamodel.Department{Name: "Finance"}
		Expect(db.Create(&sales).Error).To(Succeed())
		Expect(db.Create(&finance).Error).To(Succeed())

		cashier = employeeDatamodel.Role{Name: "Cashier"}
		Expect(db.Create(&cashier).Error).To(Succeed())

		salesID, cashierID := sales.ID, cashier.ID
		employee = employeeDatamodel.Employee{Name: "Rina", DepartmentID: &salesID, RoleID: &cashierID}
		loner = employeeDatamodel.Employee{Name: "Budi"}
		Expect(db.Create(&employee).Error).To(Succeed())
		Expect(db.Create(&loner).Error).To(Succeed())

		group := moduleDatamodel.ModuleGroup{ModuleGroupName: "Master Data"}
		Expect(db.Create(&group).Error).To(Succeed())
		modA = moduleDatamodel.Module{ModuleName: "Departments", ModuleGroupID: group.ID}
		modB = moduleDatamodel.Module{ModuleName: "Holidays", ModuleGroupID: group.ID}
		Expect(db.Create(&modA).Error).To(Succeed())
		Expect(db.Create(&modB).Error).To(Succeed())

		sqlxDB, err := database.SQLX(db, internal.DriverSQLite)
		Expect(err).NotTo(HaveOccurred())

		service := permission.NewService(
			permissionPostgres.NewGrantRepository(db),
			catalogPostgres.NewReader(sqlxDB),
			nil,
			logger,
		)
		handler := permission.NewHandler(transport.NewBaseHandler(logger), service)

		router = chi.NewRouter()
		router.Get("/employee-permissions", handler.GetPermissions)
		router.Get("/employee-permissions/matrix", handler.GetPermissionMatrix)
		router.Put("/employee-permissions/{employee_id}", handler.ReplacePermissions)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("GET /employee-permissions", func() {
		It("should return 400 when employee_id is missing", func() {
			w, env := do(http.MethodGet, "/employee-permissions", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Message).To(ContainSubstring("employee_id is required"))
		})

		It("should return 400 when employee_id is not a number", func() {
			w, _ := do(http.MethodGet, "/employee-permissions?employee_id=abc", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 for an unknown employee", func() {
			w, env := do(http.MethodGet, "/employee-permissions?employee_id=9999", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(env.Message).To(Equal("Employee not found"))
		})

		It("should return 200 with an empty module list when there are no grants", func() {
			w, env := do(http.MethodGet, "/employee-permissions?employee_id="+itoa(loner.ID), "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
			Expect(string(env.Data)).To(ContainSubstring(`"modules":[]`))
		})

		It("should return 404 for a soft-deleted employee", func() {
			Expect(db.Delete(&loner).Error).To(Succeed())
			w, _ := do(http.MethodGet, "/employee-permissions?employee_id="+itoa(loner.ID), "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PUT /employee-permissions/{employee_id}", func() {
		It("should return 400 when permissions is missing", func() {
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), `{"department_id": 1, "role_name": "Cashier"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 400 when permissions is empty", func() {
			w, env := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), `{"permissions": []}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Message).To(Equal("permissions must not be empty"))
		})

		It("should return 400 when permissions is not an array", func() {
			w, env := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), `{"permissions": "all"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Message).To(Equal("permissions must be an array"))
		})

		It("should return 400 for a malformed body", func() {
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), `{"permissions": [`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 400 for a non-numeric employee id", func() {
			w, _ := do(http.MethodPut, "/employee-permissions/abc", `{"permissions": [{"module_id": 1, "access_level_id": 1}]}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should replace the grants and return the inserted rows", func() {
			body := `{"department_id": ` + itoa(sales.ID) + `, "role_name": "Cashier", "permissions": [` +
				`{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 2},` +
				`{"module_id": ` + itoa(modB.ID) + `, "access_level_id": 1}]}`

			w, env := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))

			var data permission.ReplaceGrantsResponse
			Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
			Expect(data.EmployeeID).To(Equal(employee.ID))
			Expect(data.Permissions).To(HaveLen(2))
			for _, p := range data.Permissions {
				Expect(p.ID).To(BeNumerically(">", 0))
				Expect(*p.DepartmentID).To(Equal(sales.ID))
				Expect(p.RoleName).To(Equal("Cashier"))
			}

			Expect(storedGrants(employee.ID)).To(HaveLen(2))
		})

		It("should reject unknown modules and keep the previous grants", func() {
			body := `{"permissions": [{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 1}]}`
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))
			before := grantIDs(storedGrants(employee.ID))

			body = `{"permissions": [{"module_id": ` + itoa(modB.ID) + `, "access_level_id": 1}, {"module_id": 9999, "access_level_id": 1}]}`
			w, env := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Message).To(ContainSubstring("unknown"))

			after := storedGrants(employee.ID)
			Expect(grantIDs(after)).To(Equal(before))
			Expect(after[0].ModuleID).To(Equal(modA.ID))
		})

		It("should reject an unknown employee", func() {
			body := `{"permissions": [{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 1}]}`
			w, _ := do(http.MethodPut, "/employee-permissions/9999", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("replace then resolve", func() {
		It("should show live org names while the stored rows keep the snapshot", func() {
			body := `{"department_id": ` + itoa(sales.ID) + `, "role_name": "Sales", "permissions": [{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 2}]}`
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))

			Expect(db.Model(&employeeDatamodel.Employee{}).Where("id = ?", employee.ID).Update("department_id", finance.ID).Error).To(Succeed())

			w, env := do(http.MethodGet, "/employee-permissions?employee_id="+itoa(employee.ID), "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var view permission.PermissionView
			Expect(json.Unmarshal(env.Data, &view)).To(Succeed())
			Expect(view.Modules).To(HaveLen(1))
			Expect(view.Modules[0].DepartmentID).To(Equal(finance.ID))
			Expect(view.Modules[0].DepartmentName).To(Equal("Finance"))
			Expect(view.Modules[0].DesignationName).To(Equal("Cashier"))
			Expect(view.Modules[0].ModuleName).To(Equal("Departments"))
			Expect(view.Modules[0].ModuleGroupName).To(Equal("Master Data"))

			rows := storedGrants(employee.ID)
			Expect(rows).To(HaveLen(1))
			Expect(*rows[0].DepartmentID).To(Equal(sales.ID))
			Expect(rows[0].RoleName).To(Equal("Sales"))
		})

		It("should revoke modules left out of the next replace", func() {
			body := `{"permissions": [{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 1}, {"module_id": ` + itoa(modB.ID) + `, "access_level_id": 1}]}`
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))

			body = `{"permissions": [{"module_id": ` + itoa(modA.ID) + `, "access_level_id": 1}]}`
			w, _ = do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))

			_, env := do(http.MethodGet, "/employee-permissions?employee_id="+itoa(employee.ID), "")
			var view permission.PermissionView
			Expect(json.Unmarshal(env.Data, &view)).To(Succeed())
			Expect(view.Modules).To(HaveLen(1))
			Expect(view.Modules[0].ModuleID).To(Equal(modA.ID))
		})

		It("should expand the matrix to every access level", func() {
			body := `{"department_id": ` + itoa(sales.ID) + `, "role_name": "Cashier", "permissions": [{"module_id": ` + itoa(modB.ID) + `, "access_level_id": 2}]}`
			w, _ := do(http.MethodPut, "/employee-permissions/"+itoa(employee.ID), body)
			Expect(w.Code).To(Equal(http.StatusOK))

			w, env := do(http.MethodGet, "/employee-permissions/matrix?employee_id="+itoa(employee.ID), "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var matrix permission.PermissionMatrix
			Expect(json.Unmarshal(env.Data, &matrix)).To(Succeed())
			Expect(matrix.Modules).To(HaveLen(3))

			levels := []int64{}
			for _, entry := range matrix.Modules {
				Expect(entry.ModuleID).To(Equal(modB.ID))
				Expect(entry.ModuleName).To(Equal("Holidays"))
				levels = append(levels, entry.AccessLevelID)
			}
			Expect(levels).To(Equal([]int64{1, 2, 3}))
		})

		It("should return 404 on the matrix route for an unknown employee", func() {
			w, _ := do(http.MethodGet, "/employee-permissions/matrix?employee_id=9999", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
