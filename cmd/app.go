package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/teacher-contracts/internal"
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
	"github.com/frahmantamala/teacher-contracts/internal/user"
	userPostgres "github.com/frahmantamala/teacher-contracts/internal/user/postgres"
	"github.com/frahmantamala/teacher-contracts/pkg/logger"
)

// Services is the domain layer shared by the server and the worker.
type Services struct {
	Auth         *auth.Service
	User         *user.Service
	Template     *template.Service
	Contract     *contract.Service
	Notification *notification.Service
	Report       *report.Service
}

// Dependencies owns every long-lived resource a command opens.
type Dependencies struct {
	Config    *internal.Config
	DB        *database.DB
	Redis     *redis.Client
	Cache     cache.Cache
	Bus       *events.EventBus
	Forwarder *events.AMQPForwarder
	Logger    *slog.Logger
}

func initializeDependencies(cfg *internal.Config) (*Dependencies, error) {
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Cache:  cache.NewMemoryCache(),
		Bus:    events.NewEventBus(lg),
		Logger: lg,
	}

	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := internal.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			deps.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		deps.Redis = client
		deps.Cache = cache.NewRedisCache(client, "teacher-contracts:", lg)
	}

	if cfg.RabbitMQ.Enabled {
		fwd, err := events.DialAMQPForwarder(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.PublishTimeout, lg)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		fwd.Attach(deps.Bus)
		deps.Forwarder = fwd
	}

	return deps, nil
}

// NewServices wires repositories into services. pusher may be nil.
func (d *Dependencies) NewServices(pusher notification.Pusher) *Services {
	cfg := d.Config

	userService := user.NewService(userPostgres.NewUserRepository(d.DB.Gorm), d.Logger)
	templateService := template.NewService(templatePostgres.NewTemplateRepository(d.DB.Gorm), d.Logger)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(d.DB.Gorm), tokens, d.Cache, cfg.Security.BCryptCost, d.Logger)

	contractService := contract.NewService(
		contractPostgres.NewContractRepository(d.DB.Gorm),
		userService,
		templateService,
		d.Bus,
		d.Logger,
	)

	reportService := report.NewService(
		reportPostgres.NewReportRepository(d.DB.SQLX),
		d.Cache,
		report.Config{ExpiringWithinDays: cfg.Report.ExpiringWithinDays, CacheTTL: cfg.Redis.CacheTTL},
		d.Logger,
	)
	reportService.RegisterEventHandlers(d.Bus)

	return &Services{
		Auth:         authService,
		User:         userService,
		Template:     templateService,
		Contract:     contractService,
		Notification: notification.NewService(notificationPostgres.NewNotificationRepository(d.DB.Gorm), pusher, d.Logger),
		Report:       reportService,
	}
}

// NewNotificationFanOut turns contract events on the bus into notifications
// created by a worker pool.
func (d *Dependencies) NewNotificationFanOut(services *Services) *notification.Dispatcher {
	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{
		MaxWorkers:   d.Config.Notification.MaxWorkers,
		JobQueueSize: d.Config.Notification.JobQueueSize,
	}, services.Notification, d.Logger)

	notification.NewEventHandler(services.User, dispatcher, d.Logger).RegisterEventHandlers(d.Bus)
	return dispatcher
}

func (d *Dependencies) Close() {
	if d.Forwarder != nil {
		if err := d.Forwarder.Close(); err != nil {
			d.Logger.Error("rabbitmq close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}
