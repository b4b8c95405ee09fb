package upload

import "time"

type configGetter interface {
	GetUpload() Config
}

type Config struct {
	// TickInterval is how often the simulated progress advances
	TickInterval time.Duration `yaml:"tickInterval"`
	Step         int           `yaml:"step"`
	// Cap is the highest simulated value, reached before the storage confirms the upload
	Cap     int           `yaml:"cap"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 300 * time.Millisecond
	}
	if c.Step <= 0 {
		c.Step = 15
	}
	if c.Cap <= 0 || c.Cap >= 100 {
		c.Cap = 90
	}
	return c
}
