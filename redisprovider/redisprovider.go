package redisprovider

import (
	"context"
	"fmt"

	"github.com/anyproto/any-sync/app"
	"github.com/redis/go-redis/v9"
)

const CName = "ar.redis"

func New() RedisProvider {
	return new(redisProvider)
}

type configGetter interface {
	GetRedis() Config
}

type Config struct {
	IsCluster bool   `yaml:"isCluster"`
	Url       string `yaml:"url"`
}

type RedisProvider interface {
	Redis() redis.UniversalClient
	app.ComponentRunnable
}

type redisProvider struct {
	redis redis.UniversalClient
}

func (r *redisProvider) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configGetter).GetRedis()
	if conf.Url == "" {
		return fmt.Errorf("redis url is empty")
	}
	if conf.IsCluster {
		opts, err := redis.ParseClusterURL(conf.Url)
		if err != nil {
			return err
		}
		r.redis = redis.NewClusterClient(opts)
	} else {
		opts, err := redis.ParseURL(conf.Url)
		if err != nil {
			return err
		}
		r.redis = redis.NewClient(opts)
	}
	return nil
}

func (r *redisProvider) Name() (name string) {
	return CName
}

func (r *redisProvider) Run(ctx context.Context) (err error) {
	return r.redis.Ping(ctx).Err()
}

func (r *redisProvider) Redis() redis.UniversalClient {
	return r.redis
}

func (r *redisProvider) Close(ctx context.Context) (err error) {
	return r.redis.Close()
}
