package service

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

type DashboardService struct {
	store *repository.Store
	now   func() time.Time
}

func NewDashboardService(store *repository.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Stats aggregates the caller's tasks. Couriers only see their own.
func (s *DashboardService) Stats(ctx context.Context, p auth.Principal, orgID int64, days int) (models.DashboardStats, error) {
	orgID, err := resolveOrg(ctx, s.store, p, orgID)
	if err != nil {
		return models.DashboardStats{}, err
	}
	switch {
	case days <= 0:
		days = DefaultStatsDays
	case days > MaxStatsDays:
		days = MaxStatsDays
	}

	scope := repository.StatsScope{OrganizationID: orgID}
	if p.Role == models.RoleCourier {
		if p.CourierID == nil {
			return models.DashboardStats{}, apperrors.PermissionDenied("user is not linked to a courier")
		}
		scope.CourierID = p.CourierID
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	var (
		stats   models.DashboardStats
		daily   map[string]int
		lastAct *time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.ByStatus, err = s.store.Tasks.CountByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		stats.ByType, err = s.store.Tasks.CountByType(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		stats.ByCourier, err = s.store.Tasks.CountByCourier(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.store.Tasks.CountCreatedSince(gctx, scope, start)
		return err
	})
	g.Go(func() (err error) {
		lastAct, err = s.store.Tasks.LastUpdated(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, apperrors.Internal("load dashboard stats", err)
	}

	for _, n := range stats.ByStatus {
		stats.Total += n
	}
	stats.Daily = make([]models.DailyCount, 0, days)
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d).Format(models.DateLayout)
		stats.Daily = append(stats.Daily, models.DailyCount{Date: day, Count: daily[day]})
	}
	if lastAct != nil {
		stats.LastActivity = humanize.RelTime(*lastAct, now, "ago", "from now")
	}
	return stats, nil
}
