package service

import (
	"context"
	"sync"
	"time"

	"wisefido-sleep-dashboard/internal/cache"
	"wisefido-sleep-dashboard/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockDeviceRepository DeviceRepository 的 mock 实现
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Device), args.Error(1)
}

// MockOccupancyRepository OccupancyRepository 的 mock 实现
type MockOccupancyRepository struct {
	mock.Mock
}

func (m *MockOccupancyRepository) FetchOccupancy(ctx context.Context, deviceID int64, start, end time.Time) ([]domain.OccupancySample, error) {
	args := m.Called(ctx, deviceID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OccupancySample), args.Error(1)
}

func (m *MockOccupancyRepository) InsertOccupancy(ctx context.Context, samples []domain.OccupancySample) error {
	args := m.Called(ctx, samples)
	return args.Error(0)
}

func (m *MockOccupancyRepository) GetCurrentOccupancy(ctx context.Context, deviceID int64) (*bool, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bool), args.Error(1)
}

// MockDashboardRepository DashboardRepository 的 mock 实现
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) UpsertSnapshot(ctx context.Context, snapshot *domain.DashboardSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockDashboardRepository) GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardSnapshot), args.Error(1)
}

// fakeSnapshotCache in-memory SnapshotCache; setErr makes every UpdateSnapshot fail
type fakeSnapshotCache struct {
	mu     sync.Mutex
	data   map[int64]*domain.DashboardSnapshot
	setErr error
	sets   int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{data: make(map[int64]*domain.DashboardSnapshot)}
}

func (f *fakeSnapshotCache) UpdateSnapshot(ctx context.Context, snapshot *domain.DashboardSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[snapshot.DeviceID] = snapshot
	return nil
}

func (f *fakeSnapshotCache) GetSnapshot(ctx context.Context, deviceID int64) (*domain.DashboardSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.data[deviceID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return s, nil
}
