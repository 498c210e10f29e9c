package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisefido-sleep-dashboard/internal/domain"
	"wisefido-sleep-dashboard/internal/repository"

	"go.uber.org/zap"
	mqttcommon "wisefido-sleep-dashboard/common/mqtt"
)

// MQTTConsumer 占用数据 MQTT 消费者
// Stores raw occupancy readings and optionally announces them on the event stream.
type MQTTConsumer struct {
	mqttClient *mqttcommon.Client
	devices    repository.DeviceRepository
	occupancy  repository.OccupancyRepository
	publisher  EventPublisher // nil = don't announce
	logger     *zap.Logger
	topic      string
	qos        byte
	now        func() time.Time
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	mqttClient *mqttcommon.Client,
	devices repository.DeviceRepository,
	occupancy repository.OccupancyRepository,
	publisher EventPublisher,
	logger *zap.Logger,
	topic string,
	qos byte,
) *MQTTConsumer {
	return &MQTTConsumer{
		mqttClient: mqttClient,
		devices:    devices,
		occupancy:  occupancy,
		publisher:  publisher,
		logger:     logger,
		topic:      topic,
		qos:        qos,
		now:        time.Now,
	}
}

// Start 启动消费者, blocks until ctx is done
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("occupancy MQTT topic not configured")
	}

	if err := c.mqttClient.Subscribe(c.topic, c.qos, func(topic string, payload []byte) error {
		return c.handleMessage(ctx, topic, payload)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to occupancy topic: %w", err)
	}

	c.logger.Info("MQTT consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop() error {
	if c.topic != "" {
		if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理MQTT消息
func (c *MQTTConsumer) handleMessage(ctx context.Context, topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	samples, err := ParseOccupancyPayload(payload, c.now())
	if err != nil {
		return fmt.Errorf("failed to parse occupancy message: %w", err)
	}

	// 按设备分组, unknown devices are skipped
	byDevice := make(map[int64][]domain.OccupancySample)
	var order []int64
	for _, s := range samples {
		if _, seen := byDevice[s.DeviceID]; !seen {
			order = append(order, s.DeviceID)
		}
		byDevice[s.DeviceID] = append(byDevice[s.DeviceID], s)
	}

	for _, deviceID := range order {
		if err := c.storeDeviceSamples(ctx, deviceID, byDevice[deviceID]); err != nil {
			c.logger.Error("Failed to store occupancy",
				zap.Int64("device_id", deviceID),
				zap.Error(err),
			)
			// 继续处理下一个设备，不中断
		}
	}
	return nil
}

func (c *MQTTConsumer) storeDeviceSamples(ctx context.Context, deviceID int64, samples []domain.OccupancySample) error {
	if _, err := c.devices.GetDevice(ctx, deviceID); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			c.logger.Warn("Occupancy for unknown device skipped",
				zap.Int64("device_id", deviceID),
				zap.Int("sample_count", len(samples)),
			)
			return nil
		}
		return err
	}

	if err := c.occupancy.InsertOccupancy(ctx, samples); err != nil {
		return err
	}

	c.logger.Debug("Stored raw occupancy",
		zap.Int64("device_id", deviceID),
		zap.Int("sample_count", len(samples)),
	)

	if c.publisher != nil {
		event := &RecomputeEvent{EventType: EventOccupancyIngested, DeviceID: deviceID}
		if err := c.publisher.Publish(ctx, event); err != nil {
			c.logger.Warn("Failed to publish occupancy event",
				zap.Int64("device_id", deviceID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// occupancyMessage wire format of one reading
type occupancyMessage struct {
	DeviceID  *int64  `json:"device_id"`
	Occupied  *bool   `json:"occupied"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// timestamps without an offset are read as UTC
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseOccupancyPayload accepts one reading object or an array of them.
// A reading without created_at is stamped with receivedAt.
func ParseOccupancyPayload(payload []byte, receivedAt time.Time) ([]domain.OccupancySample, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var messages []occupancyMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
	} else {
		var msg occupancyMessage
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = []occupancyMessage{msg}
	}

	samples := make([]domain.OccupancySample, 0, len(messages))
	for i, msg := range messages {
		if msg.DeviceID == nil || msg.Occupied == nil {
			return nil, fmt.Errorf("reading %d: device_id and occupied are required", i)
		}

		ts := receivedAt
		if msg.CreatedAt != nil && *msg.CreatedAt != "" {
			parsed, err := parseTimestamp(*msg.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("reading %d: %w", i, err)
			}
			ts = parsed
		}

		samples = append(samples, domain.OccupancySample{
			DeviceID:  *msg.DeviceID,
			Timestamp: ts,
			Occupied:  *msg.Occupied,
		})
	}
	return samples, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", raw)
}
