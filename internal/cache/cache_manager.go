package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wisefido-sleep-dashboard/internal/domain"

	"go.uber.org/zap"
)

// CacheManager dashboard snapshot cache
type CacheManager struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCacheManager ttl <= 0 keeps entries until overwritten
func NewCacheManager(kv KVStore, ttl time.Duration, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// SnapshotKey redis key holding the device's snapshot JSON
func SnapshotKey(deviceID int64) string {
	return fmt.Sprintf("sleep-dashboard:device:%d", deviceID)
}

// UpdateSnapshot 更新设备的 dashboard 缓存
func (c *CacheManager) UpdateSnapshot(ctx context.Context, snapshot *domain.DashboardSnapshot) error {
	key := SnapshotKey(snapshot.DeviceID)

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard snapshot: %w", err)
	}

	if err := c.kv.Set(ctx, key, string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated dashboard cache",
		zap.Int64("device_id", snapshot.DeviceID),
		zap.String("key", key),
	)
	return nil
}

// GetSnapshot returns ErrCacheMiss when nothing is cached for deviceID.
func (c *CacheManager) GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error) {
	raw, err := c.kv.Get(ctx, SnapshotKey(deviceID))
	if err != nil {
		return nil, err
	}

	var snapshot domain.DashboardSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dashboard snapshot: %w", err)
	}
	return &snapshot, nil
}

// InvalidateSnapshot drops the cached snapshot for deviceID
func (c *CacheManager) InvalidateSnapshot(ctx context.Context, deviceID int64) error {
	return c.kv.Del(ctx, SnapshotKey(deviceID))
}
