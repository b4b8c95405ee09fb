package gatewayconfig

type ConfigGetter interface {
	GetGateway() Config
}

type Config struct {
	Addr string `yaml:"addr"`
	// ServeStatic serves ./static under /static/, for local runs without a cdn
	ServeStatic bool   `yaml:"serveStatic"`
	StaticDir   string `yaml:"staticDir"`
}
