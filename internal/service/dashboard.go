package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wisefido-sleep-dashboard/internal/cache"
	"wisefido-sleep-dashboard/internal/domain"
	"wisefido-sleep-dashboard/internal/metrics"
	"wisefido-sleep-dashboard/internal/repository"
	"wisefido-sleep-dashboard/internal/session"
	"wisefido-sleep-dashboard/internal/suggestion"

	"go.uber.org/zap"
)

const (
	// DefaultWindowDays lookback used when none is configured
	DefaultWindowDays = 30
	defaultWorkers    = 4
)

// SnapshotCache optional read-through cache in front of the dashboard table
type SnapshotCache interface {
	UpdateSnapshot(ctx context.Context, snapshot *domain.DashboardSnapshot) error
	GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error)
}

// DashboardOptions tunables for DashboardService
type DashboardOptions struct {
	WindowDays int            // used when a caller passes windowDays <= 0
	Location   *time.Location // calendar dates and bedtimes are read here
	Workers    int            // RecomputeAll concurrency
	Now        func() time.Time
}

// DashboardService 睡眠 dashboard 计算服务
// Fetch samples, reconstruct sessions, compute metrics and suggestions, store the snapshot.
type DashboardService struct {
	devices    repository.DeviceRepository
	occupancy  repository.OccupancyRepository
	dashboards repository.DashboardRepository
	cache      SnapshotCache
	logger     *zap.Logger

	windowDays int
	location   *time.Location
	workers    int
	now        func() time.Time
}

// NewDashboardService cache may be nil.
func NewDashboardService(
	devices repository.DeviceRepository,
	occupancy repository.OccupancyRepository,
	dashboards repository.DashboardRepository,
	snapshotCache SnapshotCache,
	opts DashboardOptions,
	logger *zap.Logger,
) *DashboardService {
	s := &DashboardService{
		devices:    devices,
		occupancy:  occupancy,
		dashboards: dashboards,
		cache:      snapshotCache,
		logger:     logger,
		windowDays: opts.WindowDays,
		location:   opts.Location,
		workers:    opts.Workers,
		now:        opts.Now,
	}
	if s.windowDays <= 0 {
		s.windowDays = DefaultWindowDays
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ComputeAndStore recomputes the dashboard of one device over the last windowDays.
// A nil snapshot with a nil error means there was nothing to compute
// (no samples in the window, or no session long enough).
func (s *DashboardService) ComputeAndStore(ctx context.Context, deviceID int64, windowDays int) (*domain.DashboardSnapshot, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	if _, err := s.devices.GetDevice(ctx, deviceID); err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	now := s.now().In(s.location)
	start := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	samples, err := s.occupancy.FetchOccupancy(ctx, deviceID, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch occupancy: %w", err)
	}
	samples = s.windowSamples(samples, start, now)

	if len(samples) == 0 {
		s.logger.Info("No occupancy data in window",
			zap.Int64("device_id", deviceID),
			zap.Int("window_days", windowDays),
		)
		return nil, nil
	}

	sessions := session.Reconstruct(samples, now)
	if len(sessions) == 0 {
		s.logger.Info("No sleep sessions detected",
			zap.Int64("device_id", deviceID),
			zap.Int("window_days", windowDays),
			zap.Int("sample_count", len(samples)),
		)
		return nil, nil
	}

	m := metrics.Compute(sessions, windowDays)
	snapshot := buildSnapshot(deviceID, m, suggestion.Generate(m), now)

	if err := s.dashboards.UpsertSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to upsert dashboard: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.UpdateSnapshot(ctx, snapshot); err != nil {
			s.logger.Warn("Failed to update dashboard cache",
				zap.Int64("device_id", deviceID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Dashboard updated",
		zap.Int64("device_id", deviceID),
		zap.Int("window_days", windowDays),
		zap.Int("sample_count", len(samples)),
		zap.Int("session_count", len(sessions)),
		zap.Float64("sleep_consistency", m.SleepConsistency),
		zap.Float64("avg_sleep_per_night", m.AvgSleepPerNight),
	)
	return snapshot, nil
}

// windowSamples keeps samples inside [start, end], converted to the dashboard location.
func (s *DashboardService) windowSamples(samples []domain.OccupancySample, start, end time.Time) []domain.OccupancySample {
	out := make([]domain.OccupancySample, 0, len(samples))
	for _, sample := range samples {
		if sample.Timestamp.Before(start) || sample.Timestamp.After(end) {
			continue
		}
		sample.Timestamp = sample.Timestamp.In(s.location)
		out = append(out, sample)
	}
	return out
}

func buildSnapshot(deviceID int64, m metrics.Metrics, sug suggestion.Suggestions, now time.Time) *domain.DashboardSnapshot {
	return &domain.DashboardSnapshot{
		DeviceID:              deviceID,
		SleepConsistency:      m.SleepConsistency,
		BedtimeConsistency:    m.BedtimeConsistency,
		BedUse:                m.BedUse,
		DailyOccupancy:        m.DailyOccupancy,
		TotalIntervals:        m.TotalIntervals,
		TotalNights:           m.TotalNights,
		AvgSleepPerNight:      m.AvgSleepPerNight,
		SuggestionAwakening:   sug.Awakening,
		SuggestionAvgSleep:    sug.AvgSleep,
		SuggestionConsistency: sug.Consistency,
		SuggestionBedUse:      sug.BedUse,
		UpdatedAt:             now,
	}
}

// GetSnapshot reads the stored dashboard, cache first.
// repository.ErrSnapshotNotFound is returned when nothing was computed yet.
func (s *DashboardService) GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error) {
	if s.cache != nil {
		snapshot, err := s.cache.GetSnapshot(ctx, deviceID)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to read dashboard cache",
				zap.Int64("device_id", deviceID),
				zap.Error(err),
			)
		}
	}

	snapshot, err := s.dashboards.GetSnapshot(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.UpdateSnapshot(ctx, snapshot); err != nil {
			s.logger.Warn("Failed to refill dashboard cache",
				zap.Int64("device_id", deviceID),
				zap.Error(err),
			)
		}
	}
	return snapshot, nil
}

// RecomputeResult outcome counters of one RecomputeAll run
type RecomputeResult struct {
	Total   int
	Updated int
	Skipped int // nothing to compute
	Failed  int
}

// RecomputeAll runs ComputeAndStore for every device on a bounded worker pool.
// Per-device failures are logged and counted, only listing devices can fail the run.
func (s *DashboardService) RecomputeAll(ctx context.Context, windowDays int) (RecomputeResult, error) {
	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("failed to list devices: %w", err)
	}

	result := RecomputeResult{Total: len(devices)}
	var mu sync.Mutex

	jobs := make(chan int64)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for deviceID := range jobs {
				snapshot, err := s.ComputeAndStore(ctx, deviceID, windowDays)

				mu.Lock()
				switch {
				case err != nil:
					result.Failed++
				case snapshot == nil:
					result.Skipped++
				default:
					result.Updated++
				}
				mu.Unlock()

				if err != nil {
					s.logger.Error("Failed to compute dashboard",
						zap.Int64("device_id", deviceID),
						zap.Error(err),
					)
				}
			}
		}()
	}

feed:
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- d.ID:
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("Completed dashboard recomputation",
		zap.Int("total_count", result.Total),
		zap.Int("success_count", result.Updated),
		zap.Int("skipped_count", result.Skipped),
		zap.Int("error_count", result.Failed),
	)
	return result, nil
}
