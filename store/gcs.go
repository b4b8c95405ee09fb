package store

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

func newGcsHttpClient(cfg aws.Config) *http.Client {
	return &http.Client{Transport: &gcsResigner{
		next:   http.DefaultTransport,
		signer: v4.NewSigner(),
		cfg:    cfg,
	}}
}

// gcsResigner signs requests again without Accept-Encoding, which GCS includes
// into the canonical request while S3 does not.
type gcsResigner struct {
	next   http.RoundTripper
	signer *v4.Signer
	cfg    aws.Config
}

func (g *gcsResigner) RoundTrip(req *http.Request) (*http.Response, error) {
	acceptEncoding := req.Header.Get("Accept-Encoding")
	req.Header.Del("Accept-Encoding")

	signedAt, err := time.Parse("20060102T150405Z", req.Header.Get("X-Amz-Date"))
	if err != nil {
		signedAt = time.Now().UTC()
	}
	creds, err := g.cfg.Credentials.Retrieve(req.Context())
	if err != nil {
		return nil, err
	}
	if err = g.signer.SignHTTP(req.Context(), creds, req, v4.GetPayloadHash(req.Context()), "s3", g.cfg.Region, signedAt); err != nil {
		return nil, err
	}
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	return g.next.RoundTrip(req)
}
