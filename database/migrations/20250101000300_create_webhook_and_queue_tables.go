package migrations

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20250101000300_create_webhook_and_queue_tables", &CreateWebhookAndQueueTables{})
}

// CreateWebhookAndQueueTables adds subscriptions and the dead-letter table
// their failed deliveries land in.
type CreateWebhookAndQueueTables struct{}

func (m *CreateWebhookAndQueueTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.WebhookSubscription{}, &queue.FailedJobRecord{})
}

func (m *CreateWebhookAndQueueTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{}, &models.WebhookSubscription{})
}
