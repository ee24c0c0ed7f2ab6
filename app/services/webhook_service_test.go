package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindForMatchesThresholdAndSKU(t *testing.T) {
	repos := newRepos(t)
	svc := NewWebhookService(repos.Webhooks, &recordingQueue{})
	ctx := context.Background()
	sku1, sku2 := "SKU1", "SKU2"

	any5, err := svc.Create(ctx, CreateWebhookInput{Endpoint: "http://a", MinStock: 5})
	require.NoError(t, err)
	only1, err := svc.Create(ctx, CreateWebhookInput{Endpoint: "http://b", SKU: &sku1, MinStock: 10})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWebhookInput{Endpoint: "http://c", SKU: &sku2, MinStock: 10})
	require.NoError(t, err)

	ids := func(sku string, stock int) []string {
		subs, err := svc.FindFor(ctx, sku, stock)
		require.NoError(t, err)
		var out []string
		for _, s := range subs {
			out = append(out, s.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []string{any5.ID, only1.ID}, ids("SKU1", 5))
	assert.ElementsMatch(t, []string{only1.ID}, ids("SKU1", 6))
	assert.Empty(t, ids("SKU1", 11))
	assert.ElementsMatch(t, []string{any5.ID}, ids("SKU9", 0))
}

func TestCreateTreatsBlankSKUAsEverySKU(t *testing.T) {
	repos := newRepos(t)
	svc := NewWebhookService(repos.Webhooks, &recordingQueue{})
	ctx := context.Background()
	blank := " "

	sub, err := svc.Create(ctx, CreateWebhookInput{Endpoint: "http://a", SKU: &blank, MinStock: 5})
	require.NoError(t, err)
	assert.Nil(t, sub.SKU)

	subs, err := svc.FindFor(ctx, "SKU1", 5)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
}

func TestNotifyAllQueuesOneJobPerMatch(t *testing.T) {
	repos := newRepos(t)
	q := &recordingQueue{}
	svc := NewWebhookService(repos.Webhooks, q)
	ctx := context.Background()
	for _, ep := range []string{"http://a", "http://b"} {
		_, err := svc.Create(ctx, CreateWebhookInput{Endpoint: ep, MinStock: 3})
		require.NoError(t, err)
	}

	n, err := svc.NotifyAll(ctx, "SKU1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.NotifyAll(ctx, "SKU1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "repeated events are not deduplicated")

	sent := q.all()
	require.Len(t, sent, 4)
	job := sent[0].job.(*jobs.StockNotification)
	assert.Equal(t, "SKU1", job.SKU)
	assert.Equal(t, 3, job.NewStock)
	assert.Equal(t, 5, sent[0].opts.Attempts)
}

func TestNotifyAllReportsDispatchErrors(t *testing.T) {
	repos := newRepos(t)
	q := &recordingQueue{err: errors.New("queue down")}
	svc := NewWebhookService(repos.Webhooks, q)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateWebhookInput{Endpoint: "http://a", MinStock: 3})
	require.NoError(t, err)

	n, err := svc.NotifyAll(ctx, "SKU1", 1)
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "queue down")
}
