package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	"github.com/frahmantamala/teacher-contracts/internal/contract"
	"github.com/frahmantamala/teacher-contracts/internal/notification"
	"github.com/frahmantamala/teacher-contracts/internal/report"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
	"github.com/frahmantamala/teacher-contracts/internal/transport/rest"
	"github.com/frahmantamala/teacher-contracts/internal/user"
)

const shutdownTimeout = 30 * time.Second

var validateRequests bool

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&validateRequests, "validate-requests", true, "validate API requests against api/openapi.yml")
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	deps, err := initializeDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	lg := deps.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notification.NewHub(lg)
	go hub.Run(ctx)

	services := deps.NewServices(hub)

	var dispatcher *notification.Dispatcher
	if cfg.Notification.OutOfProcess {
		lg.Info("notification fan-out left to the worker", "queue", cfg.RabbitMQ.Queue)
	} else {
		dispatcher = deps.NewNotificationFanOut(services)
	}

	base := transport.NewBaseHandler(lg)
	authHandler := auth.NewHandler(base, services.Auth)
	handlers := rest.Handlers{
		Auth:         authHandler,
		User:         user.NewHandler(base, services.User),
		Template:     template.NewHandler(base, services.Template),
		Contract:     contract.NewHandler(base, services.Contract),
		Notification: notification.NewHandler(base, services.Notification, hub, authHandler),
		Report:       report.NewHandler(base, services.Report),
	}

	opts := rest.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		ValidateRequests: validateRequests,
	}
	if deps.Redis != nil {
		opts.HealthComponents = map[string]rest.Pinger{"redis": deps.Cache.(rest.Pinger)}
	}

	router := chi.NewRouter()
	if err := rest.RegisterAllRoutes(router, deps.DB.SQLX.DB, handlers, opts, lg); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	if err := deps.Bus.Drain(shutdownCtx); err != nil {
		lg.Warn("event handlers still running at shutdown", "error", err)
	}
	if dispatcher != nil {
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			lg.Warn("notification dispatcher did not drain", "error", err)
		}
	}

	lg.Info("Server stopped")
	return nil
}
