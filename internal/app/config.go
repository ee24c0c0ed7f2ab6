package app

import (
	"time"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

// Config is everything Boot needs. FromEnv fills it from the config package;
// tests build one by hand.
type Config struct {
	DBDriver string
	DBDSN    string

	// RedisAddr empty disables Redis. With the memory queue a Redis outage
	// only disables caching; with the redis queue it is fatal.
	RedisAddr     string
	RedisPassword string
	QueueDriver   string
	QueueWorkers  int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LookupConcurrency int
	NotifyWorkers     int

	InventoryDisk     string
	InventoryPath     string
	InventoryCron     string
	InventoryLocation *time.Location
	ReportDir         string

	StorageLocalRoot string
	StorageURL       string
	S3               storage.S3Config

	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv reads Config from the environment, .env and config/app.json.
func FromEnv() Config {
	return Config{
		DBDriver:          config.DatabaseDriver(),
		DBDSN:             config.DatabaseDSN(),
		RedisAddr:         config.RedisAddr(),
		RedisPassword:     config.RedisPassword(),
		QueueDriver:       config.QueueDriver(),
		QueueWorkers:      config.QueueWorkers(),
		JWTSecret:         config.JWTSecret(),
		AccessTokenTTL:    config.AccessTokenTTL(),
		RefreshTokenTTL:   config.RefreshTokenTTL(),
		LookupConcurrency: config.Int("LOOKUP_CONCURRENCY", 8),
		NotifyWorkers:     config.Int("NOTIFY_WORKERS", 4),
		InventoryDisk:     config.InventoryCSVDisk(),
		InventoryPath:     config.InventoryCSVPath(),
		InventoryCron:     config.InventoryCron(),
		InventoryLocation: config.InventoryLocation(),
		ReportDir:         config.Get("INVENTORY_REPORT_DIR", ""),
		StorageLocalRoot:  config.StorageLocalRoot(),
		StorageURL:        config.StorageURL(),
		S3: storage.S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			URL:      config.StorageS3URL(),
		},
		KafkaBrokers: config.KafkaBrokers(),
		KafkaTopic:   config.KafkaStockTopic(),
	}
}
