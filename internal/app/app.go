// Package app constructs the service's dependencies in one place and tears
// them down in reverse order. Every command of the CLI boots an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/http"
	"github.com/shashiranjanraj/stockroom/pkg/kafka"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/schedule"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
	"github.com/shashiranjanraj/stockroom/pkg/ws"

	// Registers the schema migrations.
	_ "github.com/shashiranjanraj/stockroom/database/migrations"
)

// App holds the wired dependencies.
type App struct {
	Config Config

	DB    *gorm.DB
	Redis *redis.Client // nil when Redis is disabled or unreachable

	Queue       *queue.Manager
	RedisQueue  *queue.RedisDriver // nil with the memory driver
	memoryQueue *queue.MemoryDriver

	Storage  *storage.Manager
	Producer *kafka.Producer // nil when KAFKA_BROKERS is empty
	Hub      *ws.Hub
	Pool     *workerpool.Pool
	Signer   *auth.Signer

	Repos     *repositories.Repositories
	Auth      *services.AuthService
	Products  *services.ProductService
	Orders    *services.OrderService
	Webhooks  *services.WebhookService
	Inventory *services.InventoryService
	Feeds     *services.Fanout

	Scheduler *schedule.Scheduler
}

// Boot connects to every backing service and builds the object graph. On
// error anything already opened is closed.
func Boot(ctx context.Context, cfg Config) (a *App, err error) {
	a = &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	if a.DB, err = database.Open(cfg.DBDriver, cfg.DBDSN); err != nil {
		return nil, err
	}
	if err = a.connectRedis(ctx); err != nil {
		return nil, err
	}
	if err = a.buildQueue(); err != nil {
		return nil, err
	}
	if err = a.buildStorage(ctx); err != nil {
		return nil, err
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.Producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	a.Hub = ws.NewHub()
	a.Pool = workerpool.New("stock-notify", cfg.NotifyWorkers)
	a.Signer = auth.NewSigner(cfg.JWTSecret, cfg.AccessTokenTTL)

	if err = a.buildServices(); err != nil {
		return nil, err
	}
	if err = a.buildSchedule(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) connectRedis(ctx context.Context) error {
	if a.Config.RedisAddr == "" {
		if a.Config.QueueDriver == "redis" {
			return errors.New("app: QUEUE_DRIVER=redis requires REDIS_ADDR")
		}
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rdb, err := cache.Connect(pctx, a.Config.RedisAddr, a.Config.RedisPassword)
	if err != nil {
		if a.Config.QueueDriver == "redis" {
			return err
		}
		logger.Warn("app: redis unavailable, caching disabled", "addr", a.Config.RedisAddr, "error", err)
		return nil
	}
	a.Redis = rdb
	return nil
}

func (a *App) buildQueue() error {
	var driver queue.Driver
	switch a.Config.QueueDriver {
	case "redis":
		a.RedisQueue = queue.NewRedisDriver(a.Redis)
		driver = a.RedisQueue
	case "", "memory":
		a.memoryQueue = queue.NewMemoryDriver()
		driver = a.memoryQueue
	default:
		return fmt.Errorf("app: unsupported QUEUE_DRIVER %q (supported: memory, redis)", a.Config.QueueDriver)
	}
	a.Queue = queue.NewManager(driver, queue.WithStore(a.DB))
	jobs.Register(a.Queue, http.New(http.WithTimeout(10*time.Second), http.WithUserAgent("stockroom-webhooks/1")))
	return nil
}

func (a *App) buildStorage(ctx context.Context) error {
	a.Storage = storage.NewManager(a.Config.InventoryDisk)
	a.Storage.Register("local", storage.NewLocal(a.Config.StorageLocalRoot, a.Config.StorageURL))
	if a.Config.S3.Bucket != "" {
		s3, err := storage.NewS3(ctx, a.Config.S3)
		if err != nil {
			return err
		}
		a.Storage.Register("s3", s3)
	}
	_, err := a.Storage.Disk(a.Config.InventoryDisk)
	return err
}

func (a *App) buildServices() error {
	a.Repos = repositories.New(a.DB)

	a.Feeds = services.NewFanout(a.Pool, 5*time.Second).Add("ws", services.NewHubNotifier(a.Hub))
	if a.Producer != nil {
		a.Feeds.Add("kafka", services.NewKafkaNotifier(a.Producer))
	}

	disk, err := a.Storage.Disk(a.Config.InventoryDisk)
	if err != nil {
		return err
	}

	a.Webhooks = services.NewWebhookService(a.Repos.Webhooks, a.Queue)
	a.Orders = services.NewOrderService(a.Repos, a.Webhooks, a.Feeds, a.Config.LookupConcurrency)
	a.Auth = services.NewAuthService(a.Repos, a.Signer, a.Config.RefreshTokenTTL)
	a.Products = services.NewProductService(a.Repos, cache.NewStore(a.Redis, "stockroom:"))
	a.Inventory = services.NewInventoryService(a.Repos, disk, a.Config.InventoryPath, a.Feeds).
		WithReportDir(a.Config.ReportDir)
	return nil
}

func (a *App) buildSchedule() error {
	loc := a.Config.InventoryLocation
	if loc == nil {
		loc = time.UTC
	}
	a.Scheduler = schedule.New(loc)

	err := a.Scheduler.Cron(a.Config.InventoryCron).
		Name("inventory:reconcile").
		WithoutOverlapping().
		Run(func(ctx context.Context) error {
			_, err := a.Inventory.Reconcile(ctx)
			return err
		})
	if err != nil {
		return fmt.Errorf("app: schedule reconciliation: %w", err)
	}

	return a.Scheduler.Every(time.Hour).
		Name("auth:purge-refresh-tokens").
		WithoutOverlapping().
		Run(func(ctx context.Context) error {
			_, err := a.Auth.PurgeExpired(ctx)
			return err
		})
}

// Migrate applies every pending migration and returns their names.
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	return migration.New(a.DB).Run(ctx)
}

// Probes returns the dependency checks used by /healthz and gRPC health.
func (a *App) Probes() map[string]func(context.Context) error {
	probes := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Redis != nil {
		probes["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return probes
}

// Close releases everything Boot opened. Safe on a partially built App.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Shutdown()
	}
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			logger.Warn("app: close kafka producer", "error", err)
		}
	}
	if a.memoryQueue != nil {
		a.memoryQueue.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("app: close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			logger.Warn("app: close database", "error", err)
		}
	}
}
