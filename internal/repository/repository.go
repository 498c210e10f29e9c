package repository

import (
	"context"
	"errors"
	"time"

	"wisefido-sleep-dashboard/internal/domain"
)

var (
	// ErrDeviceNotFound no devices row for the requested id
	ErrDeviceNotFound = errors.New("device not found")
	// ErrSnapshotNotFound no dashboard computed yet for the device
	ErrSnapshotNotFound = errors.New("dashboard snapshot not found")
)

// DeviceRepository 设备Repository接口
type DeviceRepository interface {
	GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]*domain.Device, error)
}

// OccupancyRepository raw occupancy readings
type OccupancyRepository interface {
	// FetchOccupancy samples with start <= created_at <= end
	FetchOccupancy(ctx context.Context, deviceID int64, start, end time.Time) ([]domain.OccupancySample, error)

	// InsertOccupancy stores samples in a single transaction
	InsertOccupancy(ctx context.Context, samples []domain.OccupancySample) error

	// GetCurrentOccupancy latest reported state, nil when the device never reported
	GetCurrentOccupancy(ctx context.Context, deviceID int64) (*bool, error)
}

// DashboardRepository sleep_dashboard snapshots, one row per device
type DashboardRepository interface {
	UpsertSnapshot(ctx context.Context, snapshot *domain.DashboardSnapshot) error
	GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error)
}
