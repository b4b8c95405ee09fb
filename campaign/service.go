package campaign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/app/ocache"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anyproto/ar-campaign-server/campaign/campaignrepo"
	"github.com/anyproto/ar-campaign-server/domain"
	"github.com/anyproto/ar-campaign-server/events"
	"github.com/anyproto/ar-campaign-server/pagecache"
	"github.com/anyproto/ar-campaign-server/qr"
	"github.com/anyproto/ar-campaign-server/store"
	"github.com/anyproto/ar-campaign-server/upload"
	"github.com/anyproto/ar-campaign-server/validator"
)

const CName = "ar.campaign"

var log = logger.NewNamed(CName)

func New() Service {
	return new(campaignService)
}

type Result struct {
	Campaign domain.Campaign `json:"campaign"`
	QrCode   string          `json:"qrCode"`
}

type Service interface {
	// Submit creates a campaign: validates the files, uploads both of them, stores the record
	// and encodes the hosted url as a QR code. Only one submission per session may run at a time.
	Submit(ctx context.Context, sessionId string, req Submission) (res Result, err error)
	// State returns the state of the latest submission of the session
	State(ctx context.Context, sessionId string) (SubmissionState, error)

	Get(ctx context.Context, id string) (domain.Campaign, error)
	List(ctx context.Context, limit int) ([]domain.Campaign, error)
	Delete(ctx context.Context, id string) error

	// RegisterHandlers adds the campaign api to the mux
	RegisterHandlers(mux *http.ServeMux)
	app.ComponentRunnable
}

type campaignService struct {
	config      Config
	uploader    upload.Uploader
	repo        campaignrepo.CampaignRepo
	store       store.Store
	pageCache   pagecache.PageCache
	events      events.Publisher
	submissions ocache.OCache

	newId func() string
	now   func() time.Time
}

func (s *campaignService) Init(a *app.App) (err error) {
	s.config = a.MustComponent("config").(configGetter).GetCampaign()
	if s.config.HostedUrlPrefix == "" {
		return fmt.Errorf("campaign hostedUrlPrefix is empty")
	}
	if s.config.SessionTTL <= 0 {
		s.config.SessionTTL = defaultSessionTTL
	}
	if s.config.MaxUploadSize <= 0 {
		s.config.MaxUploadSize = defaultMaxUploadSize
	}
	s.uploader = a.MustComponent(upload.CName).(upload.Uploader)
	s.repo = a.MustComponent(campaignrepo.CName).(campaignrepo.CampaignRepo)
	s.store = a.MustComponent(store.CName).(store.Store)
	s.pageCache = a.MustComponent(pagecache.CName).(pagecache.PageCache)
	s.events = a.MustComponent(events.CName).(events.Publisher)
	s.submissions = ocache.New(
		func(ctx context.Context, id string) (ocache.Object, error) {
			return newSubmission(id), nil
		},
		ocache.WithLogger(log.Sugar()),
		ocache.WithTTL(s.config.SessionTTL),
		ocache.WithGCPeriod(time.Minute),
	)
	s.newId = func() string {
		return uuid.New().String()
	}
	s.now = time.Now
	return nil
}

func (s *campaignService) Name() (name string) {
	return CName
}

func (s *campaignService) Run(ctx context.Context) (err error) {
	return
}

func (s *campaignService) Submit(ctx context.Context, sessionId string, req Submission) (res Result, err error) {
	obj, err := s.submissions.Get(ctx, sessionId)
	if err != nil {
		return
	}
	sub := obj.(*submission)
	if err = sub.begin(); err != nil {
		return
	}
	if res, err = s.create(ctx, sub, req); err != nil {
		sub.fail(err)
		state := sub.snapshot()
		log.Info("campaign creation failed",
			zap.String("sessionId", sessionId),
			zap.String("campaignId", state.CampaignId),
			zap.String("stage", string(state.FailedAt)),
			zap.Error(err),
		)
		return Result{}, err
	}
	log.Info("campaign created", zap.String("sessionId", sessionId), zap.String("campaignId", res.Campaign.Id))
	// the campaign exists already, a client gone by now doesn't cancel the event
	if pubErr := s.events.Publish(context.WithoutCancel(ctx), events.Event{Type: events.TypeCampaignCreated, Campaign: res.Campaign}); pubErr != nil {
		log.Warn("campaign created event is not published", zap.String("campaignId", res.Campaign.Id), zap.Error(pubErr))
	}
	return
}

func (s *campaignService) create(ctx context.Context, sub *submission, req Submission) (res Result, err error) {
	if errs, ok := validator.Validate(req.Marker, req.Video); !ok {
		return Result{}, errs.Err()
	}

	campaignId := s.newId()
	if err = sub.startUpload(campaignId); err != nil {
		return
	}
	timestamp := s.now().UnixMilli()
	markerTask := upload.Task{
		Kind: domain.AssetMarker,
		Key:  assetKey(campaignId, domain.AssetMarker, timestamp, markerExt(req.Marker.Name)),
		File: toFile(req.Marker),
	}
	videoTask := upload.Task{
		Kind: domain.AssetVideo,
		Key:  assetKey(campaignId, domain.AssetVideo, timestamp, "mp4"),
		File: toFile(req.Video),
	}
	// the first failure cancels the other upload; an object it has already stored stays orphaned
	var markerUrl, videoUrl string
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		markerUrl, err = s.uploader.Upload(gCtx, markerTask, sub.progressFunc(domain.AssetMarker))
		return
	})
	g.Go(func() (err error) {
		videoUrl, err = s.uploader.Upload(gCtx, videoTask, sub.progressFunc(domain.AssetVideo))
		return
	})
	if err = g.Wait(); err != nil {
		return
	}

	if err = sub.setStage(StagePersisting); err != nil {
		return
	}
	hostedUrl, err := s.hostedUrl(campaignId)
	if err != nil {
		return
	}
	stored, err := s.repo.Create(ctx, domain.Campaign{
		Id:        campaignId,
		VideoUrl:  videoUrl,
		MarkerUrl: markerUrl,
		HostedUrl: hostedUrl,
		MarkerKey: markerTask.Key,
		VideoKey:  videoTask.Key,
	})
	if err != nil {
		return Result{}, &domain.PersistenceError{Err: err}
	}

	if err = sub.setStage(StageEncoding); err != nil {
		return
	}
	qrCode, err := qr.Encode(stored.HostedUrl)
	if err != nil {
		return
	}

	res = Result{Campaign: stored, QrCode: qrCode}
	if err = sub.complete(res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *campaignService) State(ctx context.Context, sessionId string) (SubmissionState, error) {
	obj, err := s.submissions.Pick(ctx, sessionId)
	if err != nil {
		if errors.Is(err, ocache.ErrNotExists) {
			return SubmissionState{SessionId: sessionId, Stage: StageIdle}, nil
		}
		return SubmissionState{}, err
	}
	return obj.(*submission).snapshot(), nil
}

func (s *campaignService) Get(ctx context.Context, id string) (domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

func (s *campaignService) List(ctx context.Context, limit int) ([]domain.Campaign, error) {
	return s.repo.List(ctx, limit)
}

// Delete removes the campaign record, its assets and the cached page
func (s *campaignService) Delete(ctx context.Context, id string) error {
	campaign, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err = s.store.DeletePath(ctx, id+"/"); err != nil {
		log.Warn("can't delete campaign assets", zap.String("campaignId", id), zap.Error(err))
	}
	if err = s.pageCache.Invalidate(ctx, id); err != nil {
		log.Warn("can't invalidate campaign page", zap.String("campaignId", id), zap.Error(err))
	}
	if err = s.events.Publish(context.WithoutCancel(ctx), events.Event{Type: events.TypeCampaignDeleted, Campaign: campaign}); err != nil {
		log.Warn("campaign deleted event is not published", zap.String("campaignId", id), zap.Error(err))
	}
	return nil
}

func (s *campaignService) hostedUrl(campaignId string) (string, error) {
	return url.JoinPath(s.config.HostedUrlPrefix, "campaigns", campaignId)
}

func (s *campaignService) Close(ctx context.Context) (err error) {
	if s.submissions != nil {
		return s.submissions.Close()
	}
	return
}

func assetKey(campaignId string, kind domain.AssetKind, timestamp int64, ext string) string {
	return fmt.Sprintf("%s/%s_%d.%s", campaignId, kind, timestamp, ext)
}

// markerExt takes the extension of the uploaded file name, jpg if there is no usable one
func markerExt(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "jpg"
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "jpg"
		}
	}
	return ext
}

func toFile(c *domain.Candidate) store.File {
	return store.File{
		Name:        c.Name,
		Type:        c.ContentType,
		ContentSize: c.Size,
		Reader:      c.Reader,
	}
}
