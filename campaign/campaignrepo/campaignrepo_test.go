package campaignrepo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anyproto/ar-campaign-server/db"
	"github.com/anyproto/ar-campaign-server/domain"
)

var ctx = context.Background()

func newTestCampaign() domain.Campaign {
	id := uuid.New().String()
	return domain.Campaign{
		Id:        id,
		VideoUrl:  "https://cdn.example.com/" + id + "/video_1.mp4",
		MarkerUrl: "https://cdn.example.com/" + id + "/marker_1.png",
		HostedUrl: "https://ar.example.com/campaigns/" + id,
		MarkerKey: id + "/marker_1.png",
		VideoKey:  id + "/video_1.mp4",
	}
}

func TestCampaignRepo_Create(t *testing.T) {
	t.Run("new campaign", func(t *testing.T) {
		fx := newFixture(t)
		campaign := newTestCampaign()
		stored, err := fx.Create(ctx, campaign)
		require.NoError(t, err)
		assert.Equal(t, campaign.Id, stored.Id)
		assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Minute)

		got, err := fx.Get(ctx, campaign.Id)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})
	t.Run("duplicate id", func(t *testing.T) {
		fx := newFixture(t)
		campaign := newTestCampaign()
		_, err := fx.Create(ctx, campaign)
		require.NoError(t, err)
		_, err = fx.Create(ctx, campaign)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})
}

func TestCampaignRepo_Get(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.Get(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCampaignRepo_List(t *testing.T) {
	fx := newFixture(t)
	var ids []string
	for range 3 {
		stored, err := fx.Create(ctx, newTestCampaign())
		require.NoError(t, err)
		ids = append(ids, stored.Id)
		time.Sleep(2 * time.Millisecond)
	}
	list, err := fx.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].Id)
	assert.Equal(t, ids[1], list[1].Id)
}

func TestCampaignRepo_Delete(t *testing.T) {
	fx := newFixture(t)
	stored, err := fx.Create(ctx, newTestCampaign())
	require.NoError(t, err)
	deleted, err := fx.Delete(ctx, stored.Id)
	require.NoError(t, err)
	assert.Equal(t, stored.VideoKey, deleted.VideoKey)
	_, err = fx.Get(ctx, stored.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = fx.Delete(ctx, stored.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConvertErr(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.ErrorIs(t, convertErr(dup), domain.ErrDuplicateKey)

	unauthorized := mongo.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized on ar to execute command"}
	assert.ErrorIs(t, convertErr(unauthorized), domain.ErrPermissionDenied)

	other := errors.New("connection refused")
	assert.Equal(t, other, convertErr(other))
}

func newFixture(t testing.TB) *fixture {
	connect := os.Getenv("AR_TEST_MONGO")
	if connect == "" {
		t.Skip("AR_TEST_MONGO is not set")
	}
	fx := &fixture{
		CampaignRepo: New(),
		a:            new(app.App),
	}
	fx.a.Register(&testConfig{
		Mongo: db.Mongo{
			Connect:  connect,
			Database: "ar_campaign_unittest",
		},
	}).
		Register(db.New()).
		Register(fx.CampaignRepo)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		fx.finish(t)
	})
	return fx
}

type fixture struct {
	CampaignRepo
	a *app.App
}

func (fx *fixture) finish(t testing.TB) {
	_ = fx.CampaignRepo.(*campaignRepo).coll.Drop(ctx)
	require.NoError(t, fx.a.Close(ctx))
}

type testConfig struct {
	Mongo db.Mongo
}

func (t testConfig) Init(a *app.App) (err error) {
	return
}

func (t testConfig) Name() (name string) {
	return "config"
}

func (t testConfig) GetMongo() db.Mongo {
	return t.Mongo
}
