package service

import (
	"context"
	"testing"
	"time"

	"wisefido-sleep-dashboard/internal/config"
	"wisefido-sleep-dashboard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer Server without backends, driving a mocked DashboardService
func newTestServer(mode string) (*Server, *testDeps) {
	d := newTestService(DashboardOptions{})
	cfg := &config.Config{}
	cfg.Dashboard.TriggerMode = mode
	cfg.Dashboard.Polling.Interval = 3600

	return &Server{config: cfg, logger: zap.NewNop(), dashboard: d.svc}, d
}

func TestServer_PollingModeRecomputesOnStartup(t *testing.T) {
	s, d := newTestServer(config.TriggerModePolling)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listed := make(chan struct{}, 1)
	d.devices.On("ListDevices", mock.Anything).
		Run(func(mock.Arguments) { listed <- struct{}{} }).
		Return([]*domain.Device{}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-listed:
	case <-time.After(2 * time.Second):
		t.Fatal("initial recomputation did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestServer_UnsupportedTriggerMode(t *testing.T) {
	s, _ := newTestServer("cron")

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trigger mode")
}

func TestServer_EventModeWithoutConsumer(t *testing.T) {
	s, d := newTestServer(config.TriggerModeEvents)
	d.devices.On("ListDevices", mock.Anything).Return([]*domain.Device{}, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event consumer not initialized")
}

func TestServer_StopWithoutBackends(t *testing.T) {
	s, _ := newTestServer(config.TriggerModePolling)
	assert.NoError(t, s.Stop(context.Background()))
}
