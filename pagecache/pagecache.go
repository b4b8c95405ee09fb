// Package pagecache keeps rendered AR pages in redis, snappy-compressed.
package pagecache

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/redisprovider"
)

const CName = "ar.pagecache"

var log = logger.NewNamed(CName)

var ErrMiss = errors.New("page is not cached")

const keyPrefix = "arpage:"

func New() PageCache {
	return new(pageCache)
}

type configGetter interface {
	GetPageCache() Config
}

type Config struct {
	TTL time.Duration `yaml:"ttl"`
}

type PageCache interface {
	// Get returns the cached page or ErrMiss
	Get(ctx context.Context, campaignId string) ([]byte, error)
	Set(ctx context.Context, campaignId string, page []byte) error
	Invalidate(ctx context.Context, campaignId string) error
	app.Component
}

type pageCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func (p *pageCache) Init(a *app.App) (err error) {
	p.redis = a.MustComponent(redisprovider.CName).(redisprovider.RedisProvider).Redis()
	p.ttl = a.MustComponent("config").(configGetter).GetPageCache().TTL
	if p.ttl <= 0 {
		p.ttl = time.Hour
	}
	return
}

func (p *pageCache) Name() (name string) {
	return CName
}

func (p *pageCache) Get(ctx context.Context, campaignId string) ([]byte, error) {
	data, err := p.redis.Get(ctx, keyPrefix+campaignId).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	page, err := snappy.Decode(nil, data)
	if err != nil {
		log.Warn("can't decode cached page", zap.String("campaignId", campaignId), zap.Error(err))
		return nil, ErrMiss
	}
	return page, nil
}

func (p *pageCache) Set(ctx context.Context, campaignId string, page []byte) error {
	return p.redis.Set(ctx, keyPrefix+campaignId, snappy.Encode(nil, page), p.ttl).Err()
}

func (p *pageCache) Invalidate(ctx context.Context, campaignId string) error {
	return p.redis.Del(ctx, keyPrefix+campaignId).Err()
}
