package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, Default(), conf)

	conf, err = Load("")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, Default(), conf)
}

func TestLoad(t *testing.T) {
	data := []byte(`
api_key: secret
mode: safe
web:
  page_size: 25
news:
  lookback_days: 3
backoff:
  decode: 2s
retry:
  max: 3
`)

	filename := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	conf, err := Load(filename)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	clientConfig, err := conf.ClientConfig()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defaults := bing.DefaultConfig()

	assert.Equal(t, "secret", clientConfig.APIKey)
	assert.Equal(t, bing.ModeSafe, clientConfig.Mode)
	assert.Equal(t, 25, clientConfig.PageSize)
	assert.Equal(t, 3, clientConfig.LookbackDays)
	assert.Equal(t, 2*time.Second, clientConfig.DecodeBackoff)
	assert.Equal(t, defaults.ContinuationBackoff, clientConfig.ContinuationBackoff)
	assert.Equal(t, defaults.WebURL, clientConfig.WebURL)
	assert.Equal(t, defaults.MaxPages, clientConfig.MaxPages)
	assert.Equal(t, 3, conf.Retry.Max)
}

func TestLoadInvalidYAML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(filename, []byte("web: [unclosed"), 0644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	_, err := Load(filename)
	assert.Error(t, err)
}

func TestClientConfigErrors(t *testing.T) {
	conf := Default()
	conf.Mode = "lenient"
	conf.Retry.Max = -1

	_, err := conf.ClientConfig()
	require.Error(t, err)

	message := err.Error()
	assert.Contains(t, message, "invalid mode 'lenient'")
	assert.Contains(t, message, "retry max must not be negative")
	assert.Contains(t, message, "api key is required")
}
