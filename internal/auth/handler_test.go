package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("Auth HTTP layer", func() {
	var (
		handler *Handler
		rbac    *RBACAuthorization
		service *Service
	)

	decode := func(w *httptest.ResponseRecorder) transport.Response {
		var resp transport.Response
		gomega.Expect(json.NewDecoder(w.Body).Decode(&resp)).To(gomega.Succeed())
		return resp
	}

	login := func(email string) AuthTokens {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Email: email, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens
	}

	ginkgo.BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokenGen := NewJWTTokenGenerator("access", "refresh", time.Minute, time.Hour)
		service = NewService(newMockUserRepository(), tokenGen, bcrypt.MinCost)
		handler = NewHandler(transport.NewBaseHandler(lg), service)
		rbac = NewRBACAuthorization(NewPermissionChecker(), lg)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return tokens inside the envelope", func() {
			body, _ := json.Marshal(LoginDTO{Email: "viewer@example.com", Password: "correct_password"})
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			resp := decode(w)
			data, ok := resp.Data.(map[string]interface{})
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(data["access_token"]).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should return 401 for a wrong password", func() {
			body, _ := json.Marshal(LoginDTO{Email: "viewer@example.com", Password: "nope"})
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should return 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware with RBAC", func() {
		var reached bool

		protected := func(mw func(http.Handler) http.Handler) http.Handler {
			return handler.AuthMiddleware(mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				user, ok := internal.UserFromContext(r.Context())
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(user.ID).To(gomega.BeNumerically(">", 0))
				w.WriteHeader(http.StatusOK)
			})))
		}

		call := func(h http.Handler, token string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/employee-permissions", nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		ginkgo.BeforeEach(func() {
			reached = false
		})

		ginkgo.It("should reject a request without a token", func() {
			w := call(protected(rbac.RequireViewEmployeePermissions()), "")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should let a viewer read", func() {
			w := call(protected(rbac.RequireViewEmployeePermissions()), login("viewer@example.com").AccessToken)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached).To(gomega.BeTrue())
		})

		ginkgo.It("should forbid a viewer from replacing grants", func() {
			w := call(protected(rbac.RequireManageEmployeePermissions()), login("viewer@example.com").AccessToken)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(decode(w).Message).To(gomega.Equal(internal.ErrInsufficientAccess.Message))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should let a manager replace grants", func() {
			w := call(protected(rbac.RequireManageEmployeePermissions()), login("manager@example.com").AccessToken)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should let admin through a named permission it does not hold", func() {
			w := call(protected(rbac.Middleware(PermissionManageEmployeePermissions)), login("admin@example.com").AccessToken)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should reject a refresh token used as bearer", func() {
			w := call(protected(rbac.RequireViewEmployeePermissions()), login("viewer@example.com").RefreshToken)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
