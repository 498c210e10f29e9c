package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-sleep-dashboard/internal/domain"

	"go.uber.org/zap"
)

// PostgresDashboardRepository sleep_dashboard access
type PostgresDashboardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresDashboardRepository creates a dashboard repository
func NewPostgresDashboardRepository(db *sql.DB, logger *zap.Logger) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{db: db, logger: logger}
}

var _ DashboardRepository = (*PostgresDashboardRepository)(nil)

// UpsertSnapshot replaces the device's row as a whole.
func (r *PostgresDashboardRepository) UpsertSnapshot(ctx context.Context, s *domain.DashboardSnapshot) error {
	query := `
		INSERT INTO sleep_dashboard (
			device_id,
			sleep_consistency, bedtime_consistency, bed_use, daily_occupancy,
			total_intervals, total_nights, avg_sleep_per_night,
			suggestion_awakening, suggestion_avg_sleep, suggestion_consistency, suggestion_bed_use,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (device_id) DO UPDATE SET
			sleep_consistency      = EXCLUDED.sleep_consistency,
			bedtime_consistency    = EXCLUDED.bedtime_consistency,
			bed_use                = EXCLUDED.bed_use,
			daily_occupancy        = EXCLUDED.daily_occupancy,
			total_intervals        = EXCLUDED.total_intervals,
			total_nights           = EXCLUDED.total_nights,
			avg_sleep_per_night    = EXCLUDED.avg_sleep_per_night,
			suggestion_awakening   = EXCLUDED.suggestion_awakening,
			suggestion_avg_sleep   = EXCLUDED.suggestion_avg_sleep,
			suggestion_consistency = EXCLUDED.suggestion_consistency,
			suggestion_bed_use     = EXCLUDED.suggestion_bed_use,
			updated_at             = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.DeviceID,
		s.SleepConsistency, s.BedtimeConsistency, s.BedUse, s.DailyOccupancy,
		s.TotalIntervals, s.TotalNights, s.AvgSleepPerNight,
		s.SuggestionAwakening, s.SuggestionAvgSleep, s.SuggestionConsistency, s.SuggestionBedUse,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sleep dashboard: %w", err)
	}

	r.logger.Debug("Upserted sleep dashboard", zap.Int64("device_id", s.DeviceID))
	return nil
}

// GetSnapshot returns ErrSnapshotNotFound when the device has no row yet.
func (r *PostgresDashboardRepository) GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error) {
	query := `
		SELECT
			device_id,
			sleep_consistency, bedtime_consistency, bed_use, daily_occupancy,
			total_intervals, total_nights, avg_sleep_per_night,
			suggestion_awakening, suggestion_avg_sleep, suggestion_consistency, suggestion_bed_use,
			updated_at
		FROM sleep_dashboard
		WHERE device_id = $1
	`

	var s domain.DashboardSnapshot
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&s.DeviceID,
		&s.SleepConsistency, &s.BedtimeConsistency, &s.BedUse, &s.DailyOccupancy,
		&s.TotalIntervals, &s.TotalNights, &s.AvgSleepPerNight,
		&s.SuggestionAwakening, &s.SuggestionAvgSleep, &s.SuggestionConsistency, &s.SuggestionBedUse,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device %d: %w", deviceID, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to query sleep dashboard: %w", err)
	}
	return &s, nil
}
