package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-sleep-dashboard/internal/domain"

	"go.uber.org/zap"
)

// PostgresOccupancyRepository raw_occupancy access
type PostgresOccupancyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresOccupancyRepository creates an occupancy repository
func NewPostgresOccupancyRepository(db *sql.DB, logger *zap.Logger) *PostgresOccupancyRepository {
	return &PostgresOccupancyRepository{db: db, logger: logger}
}

var _ OccupancyRepository = (*PostgresOccupancyRepository)(nil)

// FetchOccupancy samples for deviceID inside [start, end] (both inclusive)
func (r *PostgresOccupancyRepository) FetchOccupancy(ctx context.Context, deviceID int64, start, end time.Time) ([]domain.OccupancySample, error) {
	query := `
		SELECT device_id, occupied, created_at
		FROM raw_occupancy
		WHERE device_id = $1
		  AND created_at >= $2
		  AND created_at <= $3
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw occupancy: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.OccupancySample, 0)
	for rows.Next() {
		var s domain.OccupancySample
		if err := rows.Scan(&s.DeviceID, &s.Occupied, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan raw occupancy: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw occupancy: %w", err)
	}

	r.logger.Debug("Fetched raw occupancy",
		zap.Int64("device_id", deviceID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("sample_count", len(samples)),
	)
	return samples, nil
}

// InsertOccupancy writes all samples or none.
func (r *PostgresOccupancyRepository) InsertOccupancy(ctx context.Context, samples []domain.OccupancySample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO raw_occupancy (device_id, occupied, created_at) VALUES ($1, $2, $3)`
	for _, s := range samples {
		if _, err := tx.ExecContext(ctx, query, s.DeviceID, s.Occupied, s.Timestamp); err != nil {
			return fmt.Errorf("failed to insert raw occupancy for device %d: %w", s.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit raw occupancy: %w", err)
	}
	return nil
}

// GetCurrentOccupancy most recent occupied flag, or nil if there is none.
func (r *PostgresOccupancyRepository) GetCurrentOccupancy(ctx context.Context, deviceID int64) (*bool, error) {
	query := `
		SELECT occupied
		FROM raw_occupancy
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var occupied bool
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&occupied)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query current occupancy: %w", err)
	}
	return &occupied, nil
}
