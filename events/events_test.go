package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/anyproto/any-sync/app"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/ar-campaign-server/domain"
)

var ctx = context.Background()

func TestPublisher_Publish(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		a := new(app.App)
		p := New()
		a.Register(&testConfig{}).Register(p)
		require.NoError(t, a.Start(ctx))
		defer func() {
			require.NoError(t, a.Close(ctx))
		}()
		assert.NoError(t, p.Publish(ctx, Event{Type: TypeCampaignCreated}))
	})
	t.Run("writes keyed json", func(t *testing.T) {
		w := &testWriter{}
		p := &publisher{writer: w}
		campaign := domain.Campaign{Id: "c1", HostedUrl: "https://ar.example.com/campaigns/c1"}
		require.NoError(t, p.Publish(ctx, Event{Type: TypeCampaignCreated, Campaign: campaign}))
		require.Len(t, w.msgs, 1)
		assert.Equal(t, "c1", string(w.msgs[0].Key))

		var got Event
		require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
		assert.Equal(t, TypeCampaignCreated, got.Type)
		assert.Equal(t, campaign.HostedUrl, got.Campaign.HostedUrl)
		assert.False(t, got.Timestamp.IsZero())
	})
	t.Run("unreachable broker is bounded", func(t *testing.T) {
		w := &testWriter{block: true}
		p := &publisher{writer: w, timeout: 20 * time.Millisecond}
		start := time.Now()
		err := p.Publish(ctx, Event{Type: TypeCampaignCreated})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
	t.Run("default timeout", func(t *testing.T) {
		a := new(app.App)
		p := New()
		a.Register(&testConfig{events: Config{Brokers: []string{"127.0.0.1:9092"}}}).Register(p)
		require.NoError(t, a.Start(ctx))
		defer func() {
			require.NoError(t, a.Close(ctx))
		}()
		pub := p.(*publisher)
		assert.Equal(t, defaultTimeout, pub.timeout)
		writer := pub.writer.(*kafkago.Writer)
		assert.Equal(t, defaultTimeout, writer.WriteTimeout)
		assert.Equal(t, "ar-campaigns", writer.Topic)
	})
	t.Run("write error", func(t *testing.T) {
		w := &testWriter{err: errors.New("leader not available")}
		p := &publisher{writer: w}
		assert.Error(t, p.Publish(ctx, Event{Type: TypeCampaignCreated}))
	})
}

type testWriter struct {
	msgs []kafkago.Message
	err  error
	// block waits for the context like a writer retrying an unreachable broker
	block bool
}

func (w *testWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *testWriter) Close() error { return nil }

type testConfig struct {
	events Config
}

func (c *testConfig) Init(a *app.App) (err error) { return }
func (c *testConfig) Name() (name string)         { return "config" }

func (c *testConfig) GetEvents() Config {
	return c.events
}
