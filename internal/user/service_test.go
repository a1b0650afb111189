package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/auth"
	"github.com/frahmantamala/teacher-contracts/internal/core/database"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
	"github.com/frahmantamala/teacher-contracts/internal/user"
	userPostgres "github.com/frahmantamala/teacher-contracts/internal/user/postgres"
)

func userIDs(users []*user.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

var _ = Describe("User Service", func() {
	var (
		ctx     context.Context
		db      *database.DB
		service *user.Service
		slogger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		Expect(database.Seed(ctx, db.Gorm, "hash", time.Now().UTC())).To(Succeed())

		service = user.NewService(userPostgres.NewUserRepository(db.Gorm), slogger)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("GetByID", func() {
		It("should return the user with their department", func() {
			u, err := service.GetByID(ctx, database.UserAlice)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Alice Wong"))
			Expect(u.Role).To(Equal(coreUser.RoleTeacher))
			Expect(u.Department()).To(Equal(database.DeptComputerScience))
			Expect(u.Actor()).To(Equal(coreUser.Actor{ID: "u4", Role: coreUser.RoleTeacher, DepartmentID: "d1"}))
		})

		It("should return nil for an unknown id", func() {
			u, err := service.GetByID(ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNil())
		})

		It("should leave HR without a department", func() {
			u, err := service.GetByID(ctx, database.UserHR)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.DepartmentID).To(BeNil())
			Expect(u.BelongsTo("")).To(BeFalse())
		})
	})

	Describe("List", func() {
		It("should filter by role and department", func() {
			teachers, err := service.UsersByRole(ctx, coreUser.RoleTeacher)
			Expect(err).NotTo(HaveOccurred())
			Expect(userIDs(teachers)).To(ConsistOf("u4", "u5", "u6"))

			cs, err := service.ListByDepartment(ctx, database.DeptComputerScience)
			Expect(err).NotTo(HaveOccurred())
			Expect(userIDs(cs)).To(ConsistOf("u2", "u4", "u6"))
		})

		It("should reject an unknown role", func() {
			_, err := service.List(ctx, user.ListUsersFilter{Role: "janitor"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidFieldValue))
		})
	})

	Describe("DepartmentAdmins", func() {
		It("should return only the admins of that department", func() {
			admins, err := service.DepartmentAdmins(ctx, database.DeptMathematics)
			Expect(err).NotTo(HaveOccurred())
			Expect(userIDs(admins)).To(ConsistOf("u3"))
		})

		It("should return nothing for an empty department id", func() {
			admins, err := service.DepartmentAdmins(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(admins).To(BeEmpty())
		})
	})

	Describe("Departments", func() {
		It("should list every department", func() {
			departments, err := service.ListDepartments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments).To(HaveLen(2))
		})

		It("should return a department with its members", func() {
			detail, err := service.GetDepartmentDetail(ctx, database.DeptMathematics)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Code).To(Equal("MATH"))
			Expect(detail.AdminID).To(HaveValue(Equal("u3")))
			Expect(userIDs(detail.Members)).To(ConsistOf("u3", "u5"))
		})

		It("should report an unknown department", func() {
			_, err := service.GetDepartment(ctx, "d9")
			Expect(err).To(Equal(internal.ErrDepartmentNotFound))
		})
	})

	Describe("Handler", func() {
		var router *chi.Mux

		BeforeEach(func() {
			handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
			router = chi.NewRouter()
			router.Get("/users/me", handler.GetCurrentUser)
			router.Get("/users", handler.ListUsers)
			router.Get("/departments/{id}", handler.GetDepartment)
		})

		serve := func(req *http.Request, as *auth.User) *httptest.ResponseRecorder {
			if as != nil {
				req = req.WithContext(auth.ContextWithUser(req.Context(), as))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("should return the signed-in user without the password hash", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/users/me", nil), &auth.User{ID: "u5", Role: coreUser.RoleTeacher})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).NotTo(ContainSubstring("hash"))
			var u user.User
			Expect(json.Unmarshal(w.Body.Bytes(), &u)).To(Succeed())
			Expect(u.Email).To(Equal("brian.smith@university.edu"))
		})

		It("should require a principal for /users/me", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/users/me", nil), nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should filter users by query", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/users?role=dept_admin", nil), &auth.User{ID: "u1", Role: coreUser.RoleHRAdmin})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp user.UsersResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(2))
		})

		It("should map an unknown department to 404", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/departments/d9", nil), &auth.User{ID: "u1", Role: coreUser.RoleHRAdmin})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
