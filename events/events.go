// Package events publishes campaign lifecycle events to kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/domain"
)

const CName = "ar.events"

var log = logger.NewNamed(CName)

const (
	TypeCampaignCreated = "campaign.created"
	TypeCampaignDeleted = "campaign.deleted"
)

func New() Publisher {
	return new(publisher)
}

type configGetter interface {
	GetEvents() Config
}

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// Timeout bounds a single Publish call including the writer's retries
	Timeout time.Duration `yaml:"timeout"`
}

const defaultTimeout = 5 * time.Second

type Event struct {
	Type      string          `json:"type"`
	Campaign  domain.Campaign `json:"campaign"`
	Timestamp time.Time       `json:"timestamp"`
}

type Publisher interface {
	// Publish sends the event; it's a no-op when no brokers are configured.
	// A call never takes longer than the configured timeout.
	Publish(ctx context.Context, event Event) error
	app.ComponentRunnable
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type publisher struct {
	writer  messageWriter
	timeout time.Duration
}

func (p *publisher) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configGetter).GetEvents()
	if len(conf.Brokers) == 0 {
		log.Info("no kafka brokers configured, events are disabled")
		return
	}
	if conf.Topic == "" {
		conf.Topic = "ar-campaigns"
	}
	p.timeout = conf.Timeout
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		WriteTimeout: p.timeout,
	}
	return
}

func (p *publisher) Name() (name string) {
	return CName
}

func (p *publisher) Run(ctx context.Context) (err error) {
	return
}

func (p *publisher) Publish(ctx context.Context, event Event) error {
	if p.writer == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Campaign.Id),
		Value: data,
		Time:  event.Timestamp,
	})
	if err != nil {
		log.Warn("can't publish event", zap.String("type", event.Type), zap.String("campaignId", event.Campaign.Id), zap.Error(err))
	}
	return err
}

func (p *publisher) Close(ctx context.Context) (err error) {
	if p.writer == nil {
		return
	}
	return p.writer.Close()
}
