package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/arpage"
	"github.com/anyproto/ar-campaign-server/campaign"
	"github.com/anyproto/ar-campaign-server/domain"
	"github.com/anyproto/ar-campaign-server/gateway/gatewayconfig"
	"github.com/anyproto/ar-campaign-server/pagecache"
)

func New() Gateway {
	return new(gateway)
}

const CName = "ar.gateway"

var log = logger.NewNamed(CName)

type Gateway interface {
	app.ComponentRunnable
}

type gateway struct {
	mux       *http.ServeMux
	server    *http.Server
	campaign  campaign.Service
	pageCache pagecache.PageCache
	config    gatewayconfig.Config
}

func (g *gateway) Name() (name string) {
	return CName
}

func (g *gateway) Init(a *app.App) (err error) {
	g.campaign = a.MustComponent(campaign.CName).(campaign.Service)
	g.pageCache = a.MustComponent(pagecache.CName).(pagecache.PageCache)
	g.config = a.MustComponent("config").(gatewayconfig.ConfigGetter).GetGateway()
	g.mux = http.NewServeMux()

	if g.config.ServeStatic {
		dir := g.config.StaticDir
		if dir == "" {
			dir = "./static"
		}
		g.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	}
	g.mux.HandleFunc("GET /campaigns/{id}", g.campaignPageHandler)
	g.campaign.RegisterHandlers(g.mux)
	g.server = &http.Server{Addr: g.config.Addr, Handler: g.mux}
	return
}

func (g *gateway) Run(ctx context.Context) (err error) {
	var errCh = make(chan error)
	go func() {
		errCh <- g.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("gateway server started", zap.String("addr", g.config.Addr))
		return
	}
}

func (g *gateway) campaignPageHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()
	page, err := g.pageCache.Get(ctx, id)
	if err == nil {
		writePage(w, page)
		return
	}
	if !errors.Is(err, pagecache.ErrMiss) {
		log.Warn("page cache get failed", zap.String("campaignId", id), zap.Error(err))
	}

	c, err := g.campaign.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if page, err = arpage.Render(c.VideoUrl, c.MarkerUrl); err != nil {
		log.Error("can't render campaign page", zap.String("campaignId", id), zap.Error(err))
		http.Error(w, "campaign page is unavailable", http.StatusInternalServerError)
		return
	}
	if err = g.pageCache.Set(ctx, id, page); err != nil {
		log.Warn("page cache set failed", zap.String("campaignId", id), zap.Error(err))
	}
	writePage(w, page)
}

func writePage(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (g *gateway) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}
