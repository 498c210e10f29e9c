package consumer

import (
	"context"
	"time"

	"wisefido-sleep-dashboard/internal/domain"

	"github.com/go-redis/redis/v8"
	rediscommon "wisefido-sleep-dashboard/common/redis"
)

const (
	// EventDashboardRecompute explicit recompute request
	EventDashboardRecompute = "dashboard.recompute"
	// EventOccupancyIngested published after new raw occupancy was stored
	EventOccupancyIngested = "occupancy.ingested"
)

// RecomputeEvent dashboard 重算事件
type RecomputeEvent struct {
	EventType  string `json:"event_type"`
	DeviceID   int64  `json:"device_id"`
	WindowDays int    `json:"window_days,omitempty"` // 0 = service default
	Timestamp  int64  `json:"timestamp,omitempty"`
}

// DashboardComputer what the event consumer drives
type DashboardComputer interface {
	ComputeAndStore(ctx context.Context, deviceID int64, windowDays int) (*domain.DashboardSnapshot, error)
}

// EventPublisher publishes recompute events
type EventPublisher interface {
	Publish(ctx context.Context, event *RecomputeEvent) error
}

// StreamPublisher EventPublisher on a Redis stream
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

// Publish JSON encodes event into the stream's "data" field.
func (p *StreamPublisher) Publish(ctx context.Context, event *RecomputeEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	_, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, event)
	return err
}
