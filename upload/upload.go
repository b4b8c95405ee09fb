package upload

import (
	"context"
	"net/url"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/domain"
	"github.com/anyproto/ar-campaign-server/store"
)

const CName = "ar.upload"

var log = logger.NewNamed(CName)

func New() Uploader {
	return new(uploader)
}

// Task is a single asset upload
type Task struct {
	Kind domain.AssetKind
	Key  string
	File store.File
}

type Uploader interface {
	// Upload puts the file to the storage and returns its public url.
	// onProgress is called with non-decreasing values starting at 0; 100 is reported only after
	// the storage confirmed the upload and the public url is resolved. Storage doesn't report real progress, so intermediate
	// values are simulated.
	Upload(ctx context.Context, task Task, onProgress ProgressFunc) (publicUrl string, err error)
	app.Component
}

type uploader struct {
	store store.Store
	conf  Config
}

func (u *uploader) Init(a *app.App) (err error) {
	u.store = a.MustComponent(store.CName).(store.Store)
	u.conf = a.MustComponent("config").(configGetter).GetUpload().withDefaults()
	return
}

func (u *uploader) Name() (name string) {
	return CName
}

func (u *uploader) Upload(ctx context.Context, task Task, onProgress ProgressFunc) (publicUrl string, err error) {
	if onProgress == nil {
		onProgress = func(int) {}
	}
	if u.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.conf.Timeout)
		defer cancel()
	}

	ticker := startProgress(u.conf, onProgress)
	err = u.store.Put(ctx, task.Key, task.File)
	last := ticker.Stop()
	if err != nil {
		log.Warn("upload failed",
			zap.String("asset", string(task.Kind)),
			zap.String("key", task.Key),
			zap.Int("progress", last),
			zap.Error(err),
		)
		return "", &domain.UploadError{Asset: task.Kind, Err: err}
	}
	publicUrl = u.store.PublicUrl(task.Key)
	if !usableUrl(publicUrl) {
		return "", &domain.UrlResolutionError{Asset: task.Kind, Key: task.Key}
	}
	onProgress(100)
	log.Debug("uploaded", zap.String("asset", string(task.Kind)), zap.String("key", task.Key))
	return publicUrl, nil
}

func usableUrl(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
