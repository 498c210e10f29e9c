package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wisefido-sleep-dashboard/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	rediscommon "wisefido-sleep-dashboard/common/redis"
)

const readBlock = 2 * time.Second

// EventConsumer 事件消费者
type EventConsumer struct {
	redisClient  *redis.Client
	computer     DashboardComputer
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(
	redisClient *redis.Client,
	computer DashboardComputer,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *EventConsumer {
	return &EventConsumer{
		redisClient:  redisClient,
		computer:     computer,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
	}
}

// Start 启动事件消费者, blocks until ctx is done
func (c *EventConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Event consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费事件（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeEvents(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("Failed to consume events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				// 成功时重置退避时间
				backoffDuration = time.Second
			}
		}
	}
}

func (c *EventConsumer) consumeEvents(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		c.stream,
		c.groupName,
		c.consumerName,
		c.batchSize,
		readBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		if err := c.processEvent(ctx, msg); err != nil {
			c.logger.Error("Failed to process event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条消息，不中断; unacked messages stay pending
			continue
		}
		if err := rediscommon.AckMessage(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processEvent a nil return acks the message. Malformed events and unknown
// devices are acked too, redelivery would never succeed.
func (c *EventConsumer) processEvent(ctx context.Context, msg rediscommon.StreamMessage) error {
	event, err := ParseRecomputeEvent(msg)
	if err != nil {
		c.logger.Warn("Dropping malformed event",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	switch event.EventType {
	case EventDashboardRecompute, EventOccupancyIngested:
	default:
		c.logger.Warn("Unknown event type",
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	c.logger.Debug("Processing dashboard event",
		zap.String("event_type", event.EventType),
		zap.Int64("device_id", event.DeviceID),
		zap.Int("window_days", event.WindowDays),
	)

	if _, err := c.computer.ComputeAndStore(ctx, event.DeviceID, event.WindowDays); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			c.logger.Warn("Event for unknown device",
				zap.Int64("device_id", event.DeviceID),
			)
			return nil
		}
		return err
	}
	return nil
}

// ParseRecomputeEvent reads the JSON "data" field, or flat stream fields when it is absent.
func ParseRecomputeEvent(msg rediscommon.StreamMessage) (*RecomputeEvent, error) {
	if dataStr, ok := msg.Values["data"].(string); ok {
		var event RecomputeEvent
		if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
			return nil, fmt.Errorf("invalid event data: %w", err)
		}
		if event.EventType == "" || event.DeviceID <= 0 {
			return nil, fmt.Errorf("invalid event: missing event_type or device_id")
		}
		return &event, nil
	}

	event := &RecomputeEvent{}
	if eventType, ok := msg.Values["event_type"].(string); ok {
		event.EventType = eventType
	}
	if raw, ok := msg.Values["device_id"].(string); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid device_id %q: %w", raw, err)
		}
		event.DeviceID = id
	}
	if raw, ok := msg.Values["window_days"].(string); ok && raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid window_days %q: %w", raw, err)
		}
		event.WindowDays = days
	}

	if event.EventType == "" || event.DeviceID <= 0 {
		return nil, fmt.Errorf("invalid event: missing event_type or device_id")
	}
	return event, nil
}
