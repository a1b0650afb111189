package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/contract"
	"github.com/frahmantamala/teacher-contracts/internal/core/cache"
	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

const dashboardKeyPrefix = "dashboard:"

type RepositoryAPI interface {
	CountByStatus(ctx context.Context, scope contract.Scope) ([]Bucket, error)
	CountByType(ctx context.Context, scope contract.Scope) ([]Bucket, error)
	CountByDepartment(ctx context.Context, scope contract.Scope) ([]DepartmentCount, error)
	CountWithStatus(ctx context.Context, scope contract.Scope, status contract.Status) (int64, error)
	ExpiringBetween(ctx context.Context, scope contract.Scope, from, to time.Time) ([]ExpiringContract, error)
}

type Config struct {
	ExpiringWithinDays int
	CacheTTL           time.Duration
}

type Service struct {
	repo   RepositoryAPI
	cache  cache.Cache
	config Config
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, c cache.Cache, config Config, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.NoopCache{}
	}
	if config.ExpiringWithinDays <= 0 {
		config.ExpiringWithinDays = 90
	}
	return &Service{
		repo:   repo,
		cache:  c,
		config: config,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func dashboardKey(viewer coreUser.Actor) string {
	return fmt.Sprintf("%s%s:%s:%s", dashboardKeyPrefix, viewer.Role, viewer.ID, viewer.DepartmentID)
}

// Dashboard builds the viewer's summary, served from cache when possible.
func (s *Service) Dashboard(ctx context.Context, viewer coreUser.Actor) (*Dashboard, error) {
	key := dashboardKey(viewer)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("dashboard cache read failed", "key", key, "error", err)
	} else if ok {
		var cached Dashboard
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding unreadable cached dashboard", "key", key)
	}

	d, err := s.build(ctx, viewer)
	if err != nil {
		return nil, err
	}

	if s.config.CacheTTL > 0 {
		if raw, err := json.Marshal(d); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.config.CacheTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", "key", key, "error", err)
			}
		}
	}
	return d, nil
}

func (s *Service) build(ctx context.Context, viewer coreUser.Actor) (*Dashboard, error) {
	now := s.now()
	d := &Dashboard{
		ByStatus:     map[string]int64{},
		ByType:       map[string]int64{},
		Expiring:     []ExpiringContract{},
		ExpiringDays: s.config.ExpiringWithinDays,
		GeneratedAt:  now,
	}

	scope := contract.ScopeFor(viewer)
	if scope.Empty() {
		return d, nil
	}

	byStatus, err := s.repo.CountByStatus(ctx, scope)
	if err != nil {
		return nil, s.failed("status counts", viewer, err)
	}
	d.ByStatus, d.Total = toMap(byStatus)

	byType, err := s.repo.CountByType(ctx, scope)
	if err != nil {
		return nil, s.failed("type counts", viewer, err)
	}
	d.ByType, _ = toMap(byType)

	if viewer.IsHRAdmin() {
		if d.ByDepartment, err = s.repo.CountByDepartment(ctx, scope); err != nil {
			return nil, s.failed("department counts", viewer, err)
		}
	}

	if status, ok := contract.PendingStatusFor(viewer.Role); ok {
		if d.Pending, err = s.repo.CountWithStatus(ctx, scope, status); err != nil {
			return nil, s.failed("pending count", viewer, err)
		}
	}

	window := time.Duration(s.config.ExpiringWithinDays) * 24 * time.Hour
	expiring, err := s.repo.ExpiringBetween(ctx, scope, now, now.Add(window))
	if err != nil {
		return nil, s.failed("expiring contracts", viewer, err)
	}
	if expiring != nil {
		d.Expiring = expiring
	}

	s.logger.Debug("dashboard built", "viewer_id", viewer.ID, "total", d.Total)
	return d, nil
}

func (s *Service) failed(what string, viewer coreUser.Actor, err error) error {
	s.logger.Error("failed to build dashboard", "part", what, "viewer_id", viewer.ID, "error", err)
	return internal.NewInternalError("failed to build dashboard", err)
}

// Invalidate drops every cached dashboard. It is subscribed to all events.
func (s *Service) Invalidate(ctx context.Context, event events.Event) error {
	if err := s.cache.DeletePrefix(ctx, dashboardKeyPrefix); err != nil {
		return fmt.Errorf("invalidate dashboards after %s: %w", event.EventType(), err)
	}
	return nil
}

func (s *Service) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.AllEvents, s.Invalidate)
}
