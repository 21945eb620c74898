package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"publisher-backend/internal/config"
	channelRepo "publisher-backend/internal/domains/channel/repository"
	"publisher-backend/internal/domains/publication/gateway"
	pubHandler "publisher-backend/internal/domains/publication/handler"
	pubRepo "publisher-backend/internal/domains/publication/repository"
	pubService "publisher-backend/internal/domains/publication/service"
	"publisher-backend/internal/infrastructure/cache"
	"publisher-backend/internal/infrastructure/database"
	"publisher-backend/internal/infrastructure/lock"
	"publisher-backend/internal/infrastructure/queue"
	"publisher-backend/internal/infrastructure/storage"
	"publisher-backend/internal/platform"
	"publisher-backend/pkg/logger"
)

// Container is the root of the dependency graph. Initialization order is
// config, infrastructure, repositories, services, handlers.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB          *database.PostgresDB
	Redis       *cache.RedisClient
	Storage     *storage.MinIOStorage
	AsynqClient *asynq.Client
	Locks       lock.Service
	Enqueuer    queue.Enqueuer
	Gateway     gateway.SocialGateway

	// Repositories
	PublicationRepo pubRepo.PublicationRepository
	PostRepo        pubRepo.PostRepository
	MediaRepo       pubRepo.MediaRepository
	TemplateRepo    pubRepo.TemplateRepository
	ChannelRepo     channelRepo.ChannelRepository

	// Services
	PublishService pubService.PublishService

	// Handlers
	PublicationHandler *pubHandler.PublicationHandler
}

// NewContainer builds the full dependency graph.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

func (c *Container) initInfrastructure() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	redisClient := cache.NewRedisClient(
		c.Config.Redis.Host,
		c.Config.Redis.Password,
		c.Config.Redis.DB,
	)
	if err := redisClient.Connect(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = redisClient
	c.Locks = lock.NewRedisLockService(redisClient.Client)

	minioStorage, err := storage.NewMinIOStorage(c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	c.Storage = minioStorage

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.Enqueuer = queue.NewAsynqEnqueuer(c.AsynqClient)

	c.Gateway = gateway.NewClient(&gateway.Config{
		BaseURL:        c.Config.Gateway.BaseURL,
		APIToken:       c.Config.Gateway.APIToken,
		Timeout:        c.Config.Gateway.Timeout,
		MaxAttempts:    c.Config.Gateway.MaxAttempts,
		RetryBaseDelay: c.Config.Gateway.RetryBaseDelay,
	})

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.PublicationRepo = pubRepo.NewPublicationRepository(pool)
	c.PostRepo = pubRepo.NewPostRepository(pool)
	c.MediaRepo = pubRepo.NewMediaRepository(pool)
	c.TemplateRepo = pubRepo.NewTemplateRepository(pool)
	c.ChannelRepo = channelRepo.NewChannelRepository(pool)
}

func (c *Container) initServices() {
	resolver := pubService.NewTemplateResolver(c.TemplateRepo)
	registry := platform.NewRegistry()

	c.PublishService = pubService.NewPublishService(
		c.PublicationRepo,
		c.PostRepo,
		c.MediaRepo,
		c.ChannelRepo,
		resolver,
		registry,
		c.Gateway,
		c.Locks,
		c.Enqueuer,
		c.Storage,
		pubService.Config{
			LockTTL:             c.Config.Publish.LockTTL,
			DispatchConcurrency: c.Config.Publish.DispatchConcurrency,
			ExpiryGrace:         c.Config.Publish.ExpiryGrace,
			DueScanLimit:        c.Config.Publish.DueScanLimit,
		},
	)
}

func (c *Container) initHandlers() {
	c.PublicationHandler = pubHandler.NewPublicationHandler(c.PublishService)
}

// Cleanup releases infrastructure resources during graceful shutdown.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close redis", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	logger.Info("Container cleanup completed", map[string]interface{}{})
}
