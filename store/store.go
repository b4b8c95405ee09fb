package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/domain"
)

var (
	ErrNotFound = domain.ErrNotFound
)

const defaultCacheControl = "max-age=3600"

func New() Store {
	return &store{}
}

const CName = "store"

var log = logger.NewNamed(CName)

type Store interface {
	app.Component

	// Put uploads a new object. An existing object under the same key is never overwritten.
	Put(ctx context.Context, key string, file File) error
	// PublicUrl returns the address the object is publicly readable at, or an empty string
	// if the store has no public address configured.
	PublicUrl(key string) string
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	DeletePath(ctx context.Context, path string) error
}

type store struct {
	bucket          *string
	client          *s3.Client
	publicUrlPrefix string
	cacheControl    string
}

func (s *store) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configSource).GetS3Store()
	if conf.Bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	awsConf, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}

	// If creds are provided in the configuration, they are directly forwarded to the client as static credentials.
	if conf.Credentials.AccessKey != "" && conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(conf.Credentials.AccessKey, conf.Credentials.SecretKey, "")
	}
	awsConf.Region = conf.Region
	if conf.GoogleCompat {
		awsConf.HTTPClient = newGcsHttpClient(awsConf)
	}
	s.bucket = aws.String(conf.Bucket)
	s.client = s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})
	s.publicUrlPrefix = publicUrlPrefix(conf)
	s.cacheControl = conf.CacheControl
	if s.cacheControl == "" {
		s.cacheControl = defaultCacheControl
	}
	return nil
}

func (s *store) Name() string {
	return CName
}

func (s *store) Put(ctx context.Context, key string, file File) error {
	input := &s3.PutObjectInput{
		Bucket:       s.bucket,
		Key:          &key,
		Body:         file.Reader,
		CacheControl: aws.String(s.cacheControl),
		IfNoneMatch:  aws.String("*"),
	}
	if ct := file.ContentType(); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if file.Len() > 0 {
		input.ContentLength = aws.Int64(file.Len())
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		log.Warn("put object failed", zap.String("key", key), zap.Error(err))
		return convertErr(err)
	}
	return nil
}

func (s *store) PublicUrl(key string) string {
	return joinPublicUrl(s.publicUrlPrefix, key)
}

func (s *store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    &key,
	}
	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		var notFound *types.NoSuchKey
		if ok := errors.As(err, &notFound); ok {
			return nil, ErrNotFound
		} else {
			return nil, convertErr(err)
		}
	}
	return output.Body, nil
}

func (s *store) DeletePath(ctx context.Context, path string) error {
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: s.bucket,
		Prefix: &path,
	})
	if err != nil {
		return convertErr(err)
	}
	if len(output.Contents) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, len(output.Contents))
	for i, c := range output.Contents {
		objects[i] = types.ObjectIdentifier{Key: c.Key}
	}
	input := &s3.DeleteObjectsInput{
		Bucket: s.bucket,
		Delete: &types.Delete{
			Objects: objects,
		},
	}
	if _, err = s.client.DeleteObjects(ctx, input); err != nil {
		return convertErr(err)
	}
	return nil
}

func publicUrlPrefix(conf Config) string {
	if conf.PublicUrlPrefix != "" {
		return conf.PublicUrlPrefix
	}
	if conf.Region == "" || conf.Endpoint != "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.Bucket, conf.Region)
}

func joinPublicUrl(prefix, key string) string {
	if prefix == "" {
		return ""
	}
	res, err := url.JoinPath(prefix, key)
	if err != nil {
		return ""
	}
	return res
}

// convertErr maps s3 api errors onto domain errors
func convertErr(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, apiErr.ErrorMessage())
	case "PreconditionFailed", "ConditionalRequestConflict":
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, apiErr.ErrorMessage())
	}
	return err
}
