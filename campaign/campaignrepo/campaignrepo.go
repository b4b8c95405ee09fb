package campaignrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anyproto/any-sync/app"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/ar-campaign-server/db"
	"github.com/anyproto/ar-campaign-server/domain"
)

const CName = "ar.campaign.repo"

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func New() CampaignRepo {
	return new(campaignRepo)
}

type CampaignRepo interface {
	// Create inserts a new campaign and sets its creation time
	Create(ctx context.Context, campaign domain.Campaign) (stored domain.Campaign, err error)
	Get(ctx context.Context, id string) (campaign domain.Campaign, err error)
	// List returns the latest campaigns, newest first
	List(ctx context.Context, limit int) ([]domain.Campaign, error)
	// Delete removes the campaign and returns the removed record
	Delete(ctx context.Context, id string) (campaign domain.Campaign, err error)
	app.ComponentRunnable
}

var campaignIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "createdAt", Value: -1},
		},
	},
}

type campaignRepo struct {
	db   db.Database
	coll *mongo.Collection
}

func (r *campaignRepo) Name() (name string) {
	return CName
}

func (r *campaignRepo) Init(a *app.App) (err error) {
	r.db = a.MustComponent(db.CName).(db.Database)
	r.coll = r.db.Db().Collection("campaigns")
	return
}

func (r *campaignRepo) Run(ctx context.Context) (err error) {
	return ensureIndexes(ctx, r.coll, campaignIndexes...)
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes ...mongo.IndexModel) (err error) {
	existingIndexes, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		return
	}
	if len(existingIndexes) <= 1 {
		_, err = coll.Indexes().CreateMany(ctx, indexes)
	}
	return
}

func (r *campaignRepo) Create(ctx context.Context, campaign domain.Campaign) (stored domain.Campaign, err error) {
	// mongo keeps milliseconds
	campaign.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err = r.coll.InsertOne(ctx, campaign); err != nil {
		return domain.Campaign{}, convertErr(err)
	}
	return campaign, nil
}

func (r *campaignRepo) Get(ctx context.Context, id string) (campaign domain.Campaign, err error) {
	if err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&campaign); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, convertErr(err)
	}
	return
}

func (r *campaignRepo) List(ctx context.Context, limit int) ([]domain.Campaign, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, convertErr(err)
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	campaigns := make([]domain.Campaign, 0, limit)
	for cur.Next(ctx) {
		var campaign domain.Campaign
		if err = cur.Decode(&campaign); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, cur.Err()
}

func (r *campaignRepo) Delete(ctx context.Context, id string) (campaign domain.Campaign, err error) {
	if err = r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&campaign); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, convertErr(err)
	}
	return
}

func (r *campaignRepo) Close(ctx context.Context) (err error) {
	return
}

const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

func convertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateKey
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) && (srvErr.HasErrorCode(codeUnauthorized) || srvErr.HasErrorCode(codeAuthenticationFailed)) {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return err
}
