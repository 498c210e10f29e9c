package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-sleep-dashboard/internal/cache"
	"wisefido-sleep-dashboard/internal/config"
	"wisefido-sleep-dashboard/internal/consumer"
	"wisefido-sleep-dashboard/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"wisefido-sleep-dashboard/common/database"
	mqttcommon "wisefido-sleep-dashboard/common/mqtt"
	rediscommon "wisefido-sleep-dashboard/common/redis"
)

// Server 睡眠 dashboard 后台服务
// Recomputes dashboards on a ticker or on stream events and optionally ingests raw occupancy.
type Server struct {
	config         *config.Config
	logger         *zap.Logger
	db             *sql.DB
	redisClient    *redis.Client
	mqttClient     *mqttcommon.Client
	dashboard      *DashboardService
	eventConsumer  *consumer.EventConsumer
	occupancyInput *consumer.MQTTConsumer
}

// NewServer connects to every backend the configuration enables.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Server{config: cfg, logger: logger, db: db}

	// Redis 用于缓存和事件驱动模式
	needRedis := cfg.Dashboard.Cache.Enabled || cfg.Dashboard.TriggerMode == config.TriggerModeEvents
	if needRedis {
		s.redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(ctx, s.redisClient); err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	devices := repository.NewPostgresDeviceRepository(db, logger)
	occupancy := repository.NewPostgresOccupancyRepository(db, logger)
	dashboards := repository.NewPostgresDashboardRepository(db, logger)

	var snapshotCache SnapshotCache
	if cfg.Dashboard.Cache.Enabled {
		ttl := time.Duration(cfg.Dashboard.Cache.TTL) * time.Second
		snapshotCache = cache.NewCacheManager(cache.NewRedisKVStore(s.redisClient), ttl, logger)
	}

	s.dashboard = NewDashboardService(devices, occupancy, dashboards, snapshotCache, DashboardOptions{
		WindowDays: cfg.Dashboard.WindowDays,
		Location:   cfg.Dashboard.Location,
		Workers:    cfg.Dashboard.Workers,
	}, logger)

	var publisher consumer.EventPublisher
	if cfg.Dashboard.TriggerMode == config.TriggerModeEvents {
		s.eventConsumer = consumer.NewEventConsumer(
			s.redisClient,
			s.dashboard,
			logger,
			cfg.Dashboard.EventStream,
			cfg.Dashboard.ConsumerGroup,
			cfg.Dashboard.ConsumerName,
			int64(cfg.Dashboard.BatchSize),
		)
		publisher = consumer.NewStreamPublisher(s.redisClient, cfg.Dashboard.EventStream)
	}

	if cfg.Occupancy.Enabled {
		s.mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to mqtt: %w", err)
		}
		s.occupancyInput = consumer.NewMQTTConsumer(
			s.mqttClient,
			devices,
			occupancy,
			publisher,
			logger,
			cfg.Occupancy.Topic,
			cfg.Occupancy.QoS,
		)
	}

	return s, nil
}

// Start 启动服务, blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting sleep dashboard service",
		zap.String("trigger_mode", s.config.Dashboard.TriggerMode),
		zap.Bool("cache_enabled", s.config.Dashboard.Cache.Enabled),
		zap.Bool("occupancy_ingest_enabled", s.config.Occupancy.Enabled),
		zap.String("timezone", s.config.Dashboard.Timezone),
	)

	if s.occupancyInput != nil {
		go func() {
			if err := s.occupancyInput.Start(ctx); err != nil {
				s.logger.Error("Occupancy consumer stopped", zap.Error(err))
			}
		}()
	}

	switch s.config.Dashboard.TriggerMode {
	case config.TriggerModePolling:
		return s.startPollingMode(ctx)
	case config.TriggerModeEvents:
		return s.startEventDrivenMode(ctx)
	default:
		return fmt.Errorf("unsupported trigger mode: %s", s.config.Dashboard.TriggerMode)
	}
}

// startPollingMode 启动轮询模式
func (s *Server) startPollingMode(ctx context.Context) error {
	interval := time.Duration(s.config.Dashboard.Polling.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting polling mode", zap.Duration("interval", interval))

	// 首次执行一次全量计算
	s.recomputeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.recomputeAll(ctx)
		}
	}
}

// startEventDrivenMode 启动事件驱动模式
func (s *Server) startEventDrivenMode(ctx context.Context) error {
	s.logger.Info("Starting event-driven mode")

	s.recomputeAll(ctx)

	if s.eventConsumer == nil {
		return fmt.Errorf("event consumer not initialized")
	}
	return s.eventConsumer.Start(ctx)
}

func (s *Server) recomputeAll(ctx context.Context) {
	if _, err := s.dashboard.RecomputeAll(ctx, 0); err != nil {
		s.logger.Error("Failed to recompute dashboards", zap.Error(err))
	}
}

// Stop 停止服务
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping sleep dashboard service")

	if s.occupancyInput != nil {
		_ = s.occupancyInput.Stop()
	}
	s.closeBackends()

	s.logger.Info("Sleep dashboard service stopped")
	return nil
}

func (s *Server) closeBackends() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := rediscommon.Close(s.redisClient); err != nil {
		s.logger.Error("Error closing redis connection", zap.Error(err))
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Error closing database connection", zap.Error(err))
	}
}
