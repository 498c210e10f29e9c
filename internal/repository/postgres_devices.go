package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-sleep-dashboard/internal/domain"

	"go.uber.org/zap"
)

// PostgresDeviceRepository 设备Repository实现
type PostgresDeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresDeviceRepository creates a device repository
func NewPostgresDeviceRepository(db *sql.DB, logger *zap.Logger) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ DeviceRepository = (*PostgresDeviceRepository)(nil)

const deviceColumns = `id, name, boardtype, mac, hardware_version, created_at`

// GetDevice returns ErrDeviceNotFound when no row matches.
func (r *PostgresDeviceRepository) GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device %d: %w", deviceID, ErrDeviceNotFound)
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	return device, nil
}

// ListDevices all devices ordered by id
func (r *PostgresDeviceRepository) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	r.logger.Debug("Listed devices", zap.Int("device_count", len(devices)))
	return devices, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var (
		d               domain.Device
		name            sql.NullString
		boardType       sql.NullInt64
		mac             sql.NullString
		hardwareVersion sql.NullString
	)
	if err := row.Scan(&d.ID, &name, &boardType, &mac, &hardwareVersion, &d.CreatedAt); err != nil {
		return nil, err
	}

	d.Name = name.String
	if boardType.Valid {
		v := int(boardType.Int64)
		d.BoardType = &v
	}
	if mac.Valid {
		d.MAC = &mac.String
	}
	if hardwareVersion.Valid {
		d.HardwareVersion = &hardwareVersion.String
	}
	return &d, nil
}
