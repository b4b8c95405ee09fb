package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"gopkg.in/yaml.v3"

	"github.com/anyproto/ar-campaign-server/campaign"
	"github.com/anyproto/ar-campaign-server/db"
	"github.com/anyproto/ar-campaign-server/events"
	"github.com/anyproto/ar-campaign-server/gateway/gatewayconfig"
	"github.com/anyproto/ar-campaign-server/pagecache"
	"github.com/anyproto/ar-campaign-server/redisprovider"
	"github.com/anyproto/ar-campaign-server/store"
	"github.com/anyproto/ar-campaign-server/upload"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Log       logger.Config        `yaml:"log"`
	Mongo     db.Mongo             `yaml:"mongo"`
	Redis     redisprovider.Config `yaml:"redis"`
	S3Store   store.Config         `yaml:"s3Store"`
	Gateway   gatewayconfig.Config `yaml:"gateway"`
	Campaign  campaign.Config      `yaml:"campaign"`
	Upload    upload.Config        `yaml:"upload"`
	PageCache pagecache.Config     `yaml:"pageCache"`
	Events    events.Config        `yaml:"events"`
}

func (c *Config) Init(a *app.App) (err error) {
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMongo() db.Mongo {
	return c.Mongo
}

func (c *Config) GetRedis() redisprovider.Config {
	return c.Redis
}

func (c *Config) GetS3Store() store.Config {
	return c.S3Store
}

func (c *Config) GetGateway() gatewayconfig.Config {
	return c.Gateway
}

func (c *Config) GetCampaign() campaign.Config {
	return c.Campaign
}

func (c *Config) GetUpload() upload.Config {
	return c.Upload
}

func (c *Config) GetPageCache() pagecache.Config {
	return c.PageCache
}

func (c *Config) GetEvents() events.Config {
	return c.Events
}
