package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/teacher-contracts/api"
	"github.com/frahmantamala/teacher-contracts/internal/transport/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
})

var _ = Describe("CORS", func() {
	handler := middleware.CORS("http://localhost:5173, https://staff.example.edu")(ok)

	It("should echo an allowed origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "https://staff.example.edu")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://staff.example.edu"))
		Expect(w.Header().Values("Vary")).To(ContainElement("Origin"))
	})

	It("should not grant an unknown origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("should short-circuit preflight requests", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal(http.MethodPost))
		Expect(w.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("Authorization"))
		Expect(w.Header().Get("Access-Control-Max-Age")).To(Equal("600"))
		Expect(w.Body.Len()).To(BeZero())
	})

	It("should answer a preflight from an unknown origin without granting it", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(BeEmpty())
	})

	It("should expose the trace header on actual requests", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Expose-Headers")).To(ContainSubstring("X-Trace"))
	})

	It("should grant nothing when no origin is configured", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		middleware.CORS("")(ok).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("should allow every origin with a wildcard", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anything.example")
		w := httptest.NewRecorder()

		middleware.CORS("*")(ok).ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("should log requests without secrets and keep the body readable", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
			w.WriteHeader(http.StatusCreated)
		})

		body := `{"email":"hr@university.edu","password":"hunter2"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer secret-token")
		w := httptest.NewRecorder()

		middleware.LoggingMiddleware(lg)(next).ServeHTTP(w, req)

		Expect(seen).To(Equal(body))
		Expect(w.Code).To(Equal(http.StatusCreated))
		out := buf.String()
		Expect(out).To(ContainSubstring("hr@university.edu"))
		Expect(out).NotTo(ContainSubstring("hunter2"))
		Expect(out).NotTo(ContainSubstring("secret-token"))
		Expect(out).To(ContainSubstring(`"status_code":201`))
	})
})

var _ = Describe("LoggingMiddleware behind RequestID", func() {
	It("should tag log lines with the trace id", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set(middleware.TraceHeader, "trace-456")

		middleware.RequestID(middleware.LoggingMiddleware(lg)(ok)).ServeHTTP(httptest.NewRecorder(), req)

		Expect(buf.String()).To(ContainSubstring(`"traceID":"trace-456"`))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into a JSON 500", func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
		w := httptest.NewRecorder()

		middleware.RecoveryMiddleware(lg)(boom).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		var resp map[string]map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]["type"]).To(Equal("INTERNAL_ERROR"))
	})
})

var _ = Describe("RequestID", func() {
	It("should keep the caller's trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "trace-123")
		w := httptest.NewRecorder()

		middleware.RequestID(ok).ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.TraceHeader)).To(Equal("trace-123"))
	})

	It("should mint one when missing", func() {
		w := httptest.NewRecorder()

		middleware.RequestID(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Header().Get(middleware.TraceHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RequestValidator", func() {
	var handler http.Handler

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		v, err := middleware.NewRequestValidator(api.OpenAPI, "/api/v1", lg)
		Expect(err).NotTo(HaveOccurred())
		handler = v.Middleware(ok)
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	It("should pass a request that matches the document", func() {
		w := send(http.MethodPost, "/api/v1/contracts", `{"teacher_id":"u4","type":"full_time","start_date":"2026-09-01","end_date":"2027-08-31"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should reject a body with an unknown enum value", func() {
		w := send(http.MethodPost, "/api/v1/contracts", `{"type":"sabbatical","start_date":"2026-09-01","end_date":"2027-08-31"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
	})

	It("should reject a missing required body", func() {
		w := send(http.MethodPatch, "/api/v1/contracts/c1/status", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should reject an out of range query parameter", func() {
		w := send(http.MethodGet, "/api/v1/contracts?limit=1000", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("limit"))
	})

	It("should accept transitions without a body", func() {
		w := send(http.MethodPost, "/api/v1/contracts/c3/approve", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should let undocumented routes through", func() {
		w := send(http.MethodGet, "/api/v1/not-in-the-document", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
