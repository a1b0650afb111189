package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	authPostgres "github.com/frahmantamala/teacher-contracts/internal/auth/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/contract"
	contractPostgres "github.com/frahmantamala/teacher-contracts/internal/contract/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/core/cache"
	"github.com/frahmantamala/teacher-contracts/internal/core/database"
	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	"github.com/frahmantamala/teacher-contracts/internal/notification"
	notificationPostgres "github.com/frahmantamala/teacher-contracts/internal/notification/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/report"
	reportPostgres "github.com/frahmantamala/teacher-contracts/internal/report/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	templatePostgres "github.com/frahmantamala/teacher-contracts/internal/template/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
	"github.com/frahmantamala/teacher-contracts/internal/transport/rest"
	"github.com/frahmantamala/teacher-contracts/internal/user"
	userPostgres "github.com/frahmantamala/teacher-contracts/internal/user/postgres"
)

const (
	accessSecret  = "access-secret-for-tests-0123456789abcdef"
	refreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

var _ = Describe("Router", func() {
	var (
		db         *database.DB
		bus        *events.EventBus
		dispatcher *notification.Dispatcher
		cancelHub  context.CancelFunc
		server     *httptest.Server
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		hash, err := auth.HashPassword("password", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(database.Seed(context.Background(), db.Gorm, hash, time.Now().UTC())).To(Succeed())

		bus = events.NewEventBus(lg)
		store := cache.NewMemoryCache()

		var hubCtx context.Context
		hubCtx, cancelHub = context.WithCancel(context.Background())
		hub := notification.NewHub(lg)
		go hub.Run(hubCtx)

		users := user.NewService(userPostgres.NewUserRepository(db.Gorm), lg)
		templates := template.NewService(templatePostgres.NewTemplateRepository(db.Gorm), lg)
		tokens := auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, time.Hour)
		authService := auth.NewService(authPostgres.NewRepository(db.Gorm), tokens, store, 4, lg)
		contracts := contract.NewService(contractPostgres.NewContractRepository(db.Gorm), users, templates, bus, lg)
		notifications := notification.NewService(notificationPostgres.NewNotificationRepository(db.Gorm), hub, lg)
		reports := report.NewService(reportPostgres.NewReportRepository(db.SQLX), store, report.Config{ExpiringWithinDays: 90, CacheTTL: time.Minute}, lg)
		reports.RegisterEventHandlers(bus)

		dispatcher = notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 2, JobQueueSize: 16}, notifications, lg)
		notification.NewEventHandler(users, dispatcher, lg).RegisterEventHandlers(bus)

		base := transport.NewBaseHandler(lg)
		authHandler := auth.NewHandler(base, authService)
		router := chi.NewRouter()
		err = rest.RegisterAllRoutes(router, db.SQLX.DB, rest.Handlers{
			Auth:         authHandler,
			User:         user.NewHandler(base, users),
			Template:     template.NewHandler(base, templates),
			Contract:     contract.NewHandler(base, contracts),
			Notification: notification.NewHandler(base, notifications, hub, authHandler),
			Report:       report.NewHandler(base, reports),
		}, rest.Options{AllowedOrigins: "http://localhost:5173", ValidateRequests: true}, lg)
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(router)
	})

	AfterEach(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(bus.Drain(ctx)).To(Succeed())
		Expect(dispatcher.Shutdown(ctx)).To(Succeed())
		cancelHub()
		Expect(db.Close()).To(Succeed())
	})

	do := func(method, path, token string, body interface{}) (*http.Response, []byte) {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(b)
		}
		req, err := http.NewRequest(method, server.URL+path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, data
	}

	login := func(email string) string {
		resp, data := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))

		var tokens auth.AuthTokens
		Expect(json.Unmarshal(data, &tokens)).To(Succeed())
		Expect(tokens.AccessToken).NotTo(BeEmpty())
		return tokens.AccessToken
	}

	errorCode := func(data []byte) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(data, &body)).To(Succeed())
		return body.Error.Code
	}

	It("should answer ping and publish the OpenAPI document", func() {
		resp, data := do(http.MethodGet, "/api/v1/ping", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(data)).To(ContainSubstring("OK"))

		resp, data = do(http.MethodGet, "/openapi.yml", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(data)).To(ContainSubstring("Teacher Contracts API"))
	})

	It("should report the database as healthy", func() {
		resp, data := do(http.MethodGet, "/api/v1/health", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var health rest.HealthResponse
		Expect(json.Unmarshal(data, &health)).To(Succeed())
		Expect(health.Status).To(Equal(rest.HealthHealthy))
		Expect(health.Components).To(HaveKey("database"))
	})

	It("should tag responses with a trace id and answer CORS preflight", func() {
		req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/contracts", nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
		Expect(resp.Header.Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("should require a token on protected routes", func() {
		resp, _ := do(http.MethodGet, "/api/v1/contracts", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("should reject a wrong password", func() {
		resp, data := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice.wong@university.edu", "password": "nope"})
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(data)).To(Equal("INVALID_CREDENTIALS"))
	})

	It("should reject requests that do not match the document", func() {
		token := login("hr@university.edu")

		resp, data := do(http.MethodPost, "/api/v1/contracts", token, map[string]string{
			"teacher_id": "u4",
			"type":       "sabbatical",
			"start_date": "2026-01-01",
			"end_date":   "2026-06-30",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(errorCode(data)).To(Equal("VALIDATION_FAILED"))
	})

	It("should scope listings to the viewer", func() {
		token := login("alice.wong@university.edu")

		resp, data := do(http.MethodGet, "/api/v1/contracts", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var page contract.ContractsResponse
		Expect(json.Unmarshal(data, &page)).To(Succeed())
		Expect(page.Total).To(BeEquivalentTo(2))

		resp, _ = do(http.MethodGet, "/api/v1/contracts/c2", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

		resp, data = do(http.MethodGet, "/api/v1/contracts/pending", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var pending contract.ContractsResponse
		Expect(json.Unmarshal(data, &pending)).To(Succeed())
		Expect(pending.Contracts).To(BeEmpty())
		Expect(pending.Total).To(BeZero())

		resp, _ = do(http.MethodGet, "/api/v1/users", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("should walk a contract through department and HR approval", func() {
		head := login("cs.head@university.edu")
		hr := login("hr@university.edu")

		resp, data := do(http.MethodPost, "/api/v1/contracts/c3/approve", head, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))
		var got contract.Contract
		Expect(json.Unmarshal(data, &got)).To(Succeed())
		Expect(got.Status).To(Equal(contract.StatusPendingHR))
		Expect(got.DepartmentApprovedBy).To(HaveValue(Equal("u2")))

		resp, data = do(http.MethodPost, "/api/v1/contracts/c3/approve", head, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		Expect(errorCode(data)).To(Equal("INVALID_CONTRACT_TRANSITION"))

		Eventually(func() int64 {
			_, data := do(http.MethodGet, "/api/v1/notifications/unread-count", hr, nil)
			var count notification.UnreadCountResponse
			Expect(json.Unmarshal(data, &count)).To(Succeed())
			return count.UnreadCount
		}).WithTimeout(3 * time.Second).Should(BeEquivalentTo(2))

		resp, data = do(http.MethodPost, "/api/v1/contracts/c3/approve", hr, map[string]string{})
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))
		Expect(json.Unmarshal(data, &got)).To(Succeed())
		Expect(got.Status).To(Equal(contract.StatusApproved))
		Expect(got.ApprovedBy).To(HaveValue(Equal("u1")))
	})

	It("should leave the HR decision to HR and keep the rejection reason", func() {
		head := login("math.head@university.edu")
		hr := login("hr@university.edu")

		resp, _ := do(http.MethodPatch, "/api/v1/contracts/c2/status", head, map[string]string{"status": "rejected"})
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))

		resp, data := do(http.MethodPatch, "/api/v1/contracts/c2/status", hr, map[string]string{"status": "rejected", "reason": "Missing paperwork"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))

		var got contract.Contract
		Expect(json.Unmarshal(data, &got)).To(Succeed())
		Expect(got.Status).To(Equal(contract.StatusRejected))
		Expect(got.RejectionReason).To(HaveValue(Equal("Missing paperwork")))

		resp, _ = do(http.MethodPatch, "/api/v1/contracts/missing/status", hr, map[string]string{"status": "approved"})
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should let a teacher draft and submit their own contract", func() {
		token := login("carol.davis@university.edu")

		resp, data := do(http.MethodPost, "/api/v1/contracts", token, map[string]string{
			"type":       "part_time",
			"start_date": "2027-01-01",
			"end_date":   "2027-06-30",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated), string(data))

		var created contract.Contract
		Expect(json.Unmarshal(data, &created)).To(Succeed())
		Expect(created.TeacherID).To(Equal("u6"))
		Expect(created.Status).To(Equal(contract.StatusDraft))

		resp, data = do(http.MethodPost, "/api/v1/contracts/"+created.ID+"/submit", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))
		Expect(strings.Contains(string(data), `"pending_dept"`)).To(BeTrue())
	})

	It("should build the HR dashboard over every contract", func() {
		token := login("hr@university.edu")

		resp, data := do(http.MethodGet, "/api/v1/reports/dashboard", token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))

		var dash report.Dashboard
		Expect(json.Unmarshal(data, &dash)).To(Succeed())
		Expect(dash.Total).To(BeEquivalentTo(5))
		Expect(dash.Pending).To(BeEquivalentTo(1))
	})

	It("should list templates and keep writes for HR", func() {
		teacher := login("alice.wong@university.edu")

		resp, data := do(http.MethodGet, "/api/v1/templates", teacher, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(data))
		Expect(string(data)).To(ContainSubstring("t1"))

		resp, _ = do(http.MethodDelete, "/api/v1/templates/t1", teacher, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})
})
