package db

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const CName = "ar.db"

var log = logger.NewNamed(CName)

func New() Database {
	return new(database)
}

type configGetter interface {
	GetMongo() Mongo
}

type Mongo struct {
	Connect  string `yaml:"connect"`
	Database string `yaml:"database"`
}

type Database interface {
	app.ComponentRunnable
	Db() *mongo.Database
}

type database struct {
	db *mongo.Database
}

func (d *database) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configGetter).GetMongo()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Connect))
	if err != nil {
		return err
	}
	d.db = client.Database(conf.Database)
	return
}

func (d *database) Name() (name string) {
	return CName
}

func (d *database) Run(ctx context.Context) (err error) {
	if err = d.db.Client().Ping(ctx, nil); err != nil {
		return
	}
	log.Info("mongo connected", zap.String("database", d.db.Name()))
	return
}

func (d *database) Db() *mongo.Database {
	return d.db
}

func (d *database) Close(ctx context.Context) (err error) {
	if d.db == nil {
		return
	}
	return d.db.Client().Disconnect(ctx)
}
