package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFile(t *testing.T) {
	t.Run("sample", func(t *testing.T) {
		conf, err := NewFromFile("../etc/config.yml")
		require.NoError(t, err)
		assert.Equal(t, "ar-campaigns", conf.GetMongo().Database)
		assert.Equal(t, "ar-campaigns", conf.GetS3Store().Bucket)
		assert.Equal(t, "http://localhost:8080", conf.GetCampaign().HostedUrlPrefix)
		assert.Equal(t, 30*time.Minute, conf.GetCampaign().SessionTTL)
		assert.Equal(t, 300*time.Millisecond, conf.GetUpload().TickInterval)
		assert.Equal(t, 90, conf.GetUpload().Cap)
		assert.Equal(t, time.Hour, conf.GetPageCache().TTL)
		assert.Empty(t, conf.GetEvents().Brokers)
		assert.Equal(t, 5*time.Second, conf.GetEvents().Timeout)
		assert.Equal(t, "0.0.0.0:8080", conf.GetGateway().Addr)
		assert.Equal(t, "info", conf.Log.DefaultLevel)
	})
	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("mongo: [unclosed"), 0o644))
		_, err := NewFromFile(path)
		assert.Error(t, err)
	})
	t.Run("no file", func(t *testing.T) {
		_, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}
