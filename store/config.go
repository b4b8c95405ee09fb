package store

type configSource interface {
	GetS3Store() Config
}

type Credentials struct {
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

type Config struct {
	Region      string      `yaml:"region"`
	Bucket      string      `yaml:"bucket"`
	Endpoint    string      `yaml:"endpoint"`
	Credentials Credentials `yaml:"credentials"`
	// PublicUrlPrefix is the address objects are publicly served from, e.g. a CDN.
	// Defaults to the virtual-hosted bucket url.
	PublicUrlPrefix string `yaml:"publicUrlPrefix"`
	CacheControl    string `yaml:"cacheControl"`
	// GoogleCompat enables re-signing of requests for the GCS interoperability api
	GoogleCompat bool `yaml:"googleCompat"`
}
