package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookMatches(t *testing.T) {
	sku := "SKU-1"
	all := WebhookSubscription{MinStock: 5}
	only := WebhookSubscription{SKU: &sku, MinStock: 5}

	assert.True(t, all.Matches("SKU-9", 5))
	assert.True(t, all.Matches("SKU-9", 0))
	assert.False(t, all.Matches("SKU-9", 6))

	assert.True(t, only.Matches("SKU-1", 3))
	assert.False(t, only.Matches("SKU-2", 3))
}

func TestMoneyAndSecretsInJSON(t *testing.T) {
	b, err := json.Marshal(Order{TotalAmount: decimal.RequireFromString("20.50"), Status: OrderPlaced})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalAmount":20.5`)

	b, err = json.Marshal(User{Email: "a@b.c", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash")
}
