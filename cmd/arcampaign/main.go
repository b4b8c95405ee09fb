package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/campaign"
	"github.com/anyproto/ar-campaign-server/campaign/campaignrepo"
	"github.com/anyproto/ar-campaign-server/config"
	"github.com/anyproto/ar-campaign-server/db"
	"github.com/anyproto/ar-campaign-server/events"
	"github.com/anyproto/ar-campaign-server/gateway"
	"github.com/anyproto/ar-campaign-server/pagecache"
	"github.com/anyproto/ar-campaign-server/redisprovider"
	"github.com/anyproto/ar-campaign-server/store"
	"github.com/anyproto/ar-campaign-server/upload"
)

// set by govvv
var (
	GitCommit  string
	GitBranch  string
	GitState   string
	GitSummary string
	BuildDate  string
)

var log = logger.NewNamed("main")

var (
	flagConfigFile = flag.String("c", "etc/config.yml", "path to config file")
	flagVersion    = flag.Bool("v", false, "show version and exit")
	flagHelp       = flag.Bool("h", false, "show help and exit")
)

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("ar-campaign-server %s (%s, %s, built %s)\n", GitSummary, GitCommit, GitBranch, BuildDate)
		return
	}
	if *flagHelp {
		flag.PrintDefaults()
		return
	}

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}
	conf.Log.ApplyGlobal()

	a := new(app.App)
	Bootstrap(a, conf)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started", zap.String("version", GitSummary), zap.String("state", GitState))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-exit
	log.Info("received exit signal, stop app...", zap.String("signal", sig.String()))

	ctx, cancel = context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
	log.Info("goodbye!")
}

func Bootstrap(a *app.App, conf *config.Config) {
	a.Register(conf).
		Register(db.New()).
		Register(redisprovider.New()).
		Register(store.New()).
		Register(upload.New()).
		Register(campaignrepo.New()).
		Register(pagecache.New()).
		Register(events.New()).
		Register(campaign.New()).
		Register(gateway.New())
}
