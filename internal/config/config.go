package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // DASHBOARD_TIMEZONE must resolve in minimal containers

	"wisefido-sleep-dashboard/common/config"

	"github.com/google/uuid"
)

const (
	TriggerModePolling = "polling"
	TriggerModeEvents  = "events"
)

// Config sleep dashboard 服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Dashboard struct {
		// lookback in days when a request does not name one
		WindowDays int

		// IANA name; calendar dates and bedtimes are evaluated here
		Timezone string
		Location *time.Location

		// 重算触发方式：polling（定时全量）或 events（Redis Streams）
		TriggerMode string

		Polling struct {
			Interval int // seconds between full recomputations, default 3600
		}

		// Redis Streams 配置（用于接收事件）
		EventStream   string
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int

		// RecomputeAll concurrency
		Workers int

		Cache struct {
			Enabled bool
			TTL     int // seconds
		}
	}

	// raw occupancy ingestion over MQTT
	Occupancy struct {
		Enabled bool
		Topic   string
		QoS     byte
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "somnomat",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "wisefido-sleep-dashboard-" + uuid.New().String()[:8],
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Dashboard.WindowDays = getEnvInt("DASHBOARD_WINDOW_DAYS", 30)
	cfg.Dashboard.Timezone = getEnv("DASHBOARD_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(cfg.Dashboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Dashboard.Timezone, err)
	}
	cfg.Dashboard.Location = loc

	cfg.Dashboard.TriggerMode = getEnv("DASHBOARD_TRIGGER_MODE", TriggerModePolling)
	switch cfg.Dashboard.TriggerMode {
	case TriggerModePolling, TriggerModeEvents:
	default:
		return nil, fmt.Errorf("unsupported DASHBOARD_TRIGGER_MODE %q", cfg.Dashboard.TriggerMode)
	}
	cfg.Dashboard.Polling.Interval = getEnvInt("DASHBOARD_POLL_INTERVAL", 3600)

	cfg.Dashboard.EventStream = getEnv("DASHBOARD_EVENT_STREAM", "dashboard:events")
	cfg.Dashboard.ConsumerGroup = getEnv("DASHBOARD_CONSUMER_GROUP", "sleep-dashboard-group")
	cfg.Dashboard.ConsumerName = getEnv("DASHBOARD_CONSUMER_NAME", "sleep-dashboard-1")
	cfg.Dashboard.BatchSize = getEnvInt("DASHBOARD_BATCH_SIZE", 10)
	cfg.Dashboard.Workers = getEnvInt("DASHBOARD_WORKERS", 4)

	cfg.Dashboard.Cache.Enabled = getEnv("DASHBOARD_CACHE_ENABLED", "true") == "true"
	cfg.Dashboard.Cache.TTL = getEnvInt("DASHBOARD_CACHE_TTL", 86400)

	cfg.Occupancy.Enabled = getEnv("OCCUPANCY_INGEST_ENABLED", "false") == "true"
	cfg.Occupancy.Topic = getEnv("OCCUPANCY_MQTT_TOPIC", "somnomat/+/occupancy")
	cfg.Occupancy.QoS = cfg.MQTT.QoS
	if qos, err := strconv.Atoi(getEnv("OCCUPANCY_MQTT_QOS", "")); err == nil && qos >= 0 && qos <= 2 {
		cfg.Occupancy.QoS = byte(qos)
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt positive integer or defaultValue
func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
