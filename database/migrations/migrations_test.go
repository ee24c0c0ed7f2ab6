package migrations_test

import (
	"context"
	"testing"

	"github.com/shashiranjanraj/stockroom/app/models"
	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUpAndDown(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer database.Close(db)

	ctx := context.Background()
	r := migration.New(db)

	applied, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 4)
	for _, table := range []interface{}{&models.User{}, &models.ProductVariation{}, &models.BOM{}, &models.OrderItem{}, &models.WebhookSubscription{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	reverted, err := r.Rollback(ctx)
	require.NoError(t, err)
	assert.Len(t, reverted, 4)
	assert.False(t, db.Migrator().HasTable(&models.Order{}))
}
