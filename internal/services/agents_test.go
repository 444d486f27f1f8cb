package services

import (
	"context"
	"encoding/json"
	"testing"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAgentService(api *fakeAPI) *AgentBuilderService {
	logger.SetLogger(zap.NewNop())
	return NewAgentBuilderService(api)
}

func TestCreateDraftUsesDefaults(t *testing.T) {
	api := newFakeAPI().on("POST", "/agents/drafts", `{"id":"d1","creator_wallet":"w1","category":"AI Agent","price":0.01}`)
	svc := newAgentService(api)

	draft, err := svc.CreateDraft(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "d1", draft.ID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(api.calls()[0].Body, &body))
	assert.Equal(t, "w1", body["creator_wallet"])
	assert.Equal(t, "", body["name"])
	assert.Equal(t, models.DefaultDraftCategory, body["category"])
	assert.Equal(t, models.DefaultDraftPrice, body["price"])
}

func TestCreateDraftPropagatesErrors(t *testing.T) {
	svc := newAgentService(newFakeAPI().fail("POST", "/agents/drafts", errBoom))

	_, err := svc.CreateDraft(context.Background(), "w1")
	assert.ErrorIs(t, err, errBoom)
}

func TestGetItemDetail(t *testing.T) {
	api := newFakeAPI().
		on("GET", "/marketplace/items/i1", `{"id":"i1","name":"Agent"}`).
		on("GET", "/agents/reviews/i1", `[{"id":"r1","rating":5}]`).
		on("GET", "/marketplace/items/i2", `{"id":"i2"}`).
		fail("GET", "/agents/reviews/i2", errBoom)
	svc := newAgentService(api)
	ctx := context.Background()

	detail := svc.GetItemDetail(ctx, "i1")
	require.NotNil(t, detail)
	assert.Equal(t, "Agent", detail.Item.Name)
	require.Len(t, detail.Reviews, 1)

	detail = svc.GetItemDetail(ctx, "i2")
	require.NotNil(t, detail)
	assert.Empty(t, detail.Reviews)

	assert.Nil(t, svc.GetItemDetail(ctx, "missing"))
}

func TestMarketplaceReadsDegrade(t *testing.T) {
	svc := newAgentService(newFakeAPI())
	ctx := context.Background()

	assert.Empty(t, svc.GetMarketplaceItems(ctx))
	assert.Nil(t, svc.GetMarketplaceItem(ctx, "x"))
	assert.Empty(t, svc.GetItemReviews(ctx, "x"))
	assert.NotNil(t, svc.GetUserDrafts(ctx, "w1"))
}

func TestRecordListingFeeDefaultsToPending(t *testing.T) {
	api := newFakeAPI().on("POST", "/agents/listing-fees", `{"id":"f1","status":"pending"}`)
	svc := newAgentService(api)

	fee, err := svc.RecordListingFee(context.Background(), models.ListingFee{CreatorWallet: "w1", FeeAmount: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "f1", fee.ID)

	var body models.ListingFee
	require.NoError(t, json.Unmarshal(api.calls()[0].Body, &body))
	assert.Equal(t, models.TransactionStatusPending, body.Status)
}
