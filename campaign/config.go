package campaign

import "time"

type configGetter interface {
	GetCampaign() Config
}

type Config struct {
	// HostedUrlPrefix is the public address of the gateway; campaign pages live under {prefix}/campaigns/{id}
	HostedUrlPrefix string `yaml:"hostedUrlPrefix"`
	// SessionTTL is how long an idle submission state is kept
	SessionTTL    time.Duration `yaml:"sessionTTL"`
	MaxUploadSize int64         `yaml:"maxUploadSize"`
}

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultMaxUploadSize = 120 * 1024 * 1024
)
