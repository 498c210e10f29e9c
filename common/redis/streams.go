package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamMessage one entry read from a stream
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// PublishToStream XADDs values to stream. Values are flattened to strings,
// anything that is not a scalar is JSON encoded.
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]interface{}) (string, error) {
	encoded, err := EncodeStreamValues(values)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: encoded,
	}).Result()
}

// PublishJSONToStream publishes data under the "data" field with a unix "timestamp".
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return PublishToStream(ctx, client, stream, map[string]interface{}{
		"data":      string(payload),
		"timestamp": time.Now().Unix(),
	})
}

// EncodeStreamValues converts values into the string form stored by XADD.
func EncodeStreamValues(values map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []byte:
			out[k] = string(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int32:
			out[k] = strconv.FormatInt(int64(val), 10)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float32:
			out[k] = strconv.FormatFloat(float64(val), 'f', -1, 32)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode stream field %s: %w", k, err)
			}
			out[k] = string(raw)
		}
	}
	return out, nil
}

// ReadFromStream XREADGROUPs up to count new messages, blocking at most block.
// An empty read returns an empty slice and no error.
func ReadFromStream(ctx context.Context, client *redis.Client, stream, group, consumer string, count int64, block time.Duration) ([]StreamMessage, error) {
	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []StreamMessage{}, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, msg := range s.Messages {
			messages = append(messages, StreamMessage{
				Stream: s.Stream,
				ID:     msg.ID,
				Values: msg.Values,
			})
		}
	}
	return messages, nil
}

// AckMessage XACKs ids for group.
func AckMessage(ctx context.Context, client *redis.Client, stream, group string, ids ...string) error {
	return client.XAck(ctx, stream, group, ids...).Err()
}

// CreateConsumerGroup creates group on stream (creating the stream too).
// An already existing group is not an error.
func CreateConsumerGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}
