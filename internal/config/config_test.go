package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes(t *testing.T) {
	yaml := []byte(`
port: 8080
auth:
  accessSecret: topsecret
providers:
  groqModel: llama-3.1-8b-instant
stream:
  bufferThreshold: 10
`)
	c, err := LoadFromBytes(yaml)
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "topsecret", c.Auth.AccessSecret)
	assert.Equal(t, "llama-3.1-8b-instant", c.Providers.GroqModel)
	assert.Equal(t, 10, c.Stream.BufferThreshold)
}

func TestLoadFromBytesDefaults(t *testing.T) {
	c, err := LoadFromBytes([]byte("port: 5001\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", c.Host)
	assert.Equal(t, "./uploads", c.Uploads.Dir)
	assert.Equal(t, int64(20*1024*1024), c.Uploads.MaxBytes)
	assert.Equal(t, 50, c.Stream.BufferThreshold)
	assert.Equal(t, 10, c.Jobs.SummaryThreshold)
	assert.Equal(t, 3, c.Jobs.RetryAttempts)
	assert.Equal(t, "llama-3.3-70b-versatile", c.Providers.GroqModel)
	assert.True(t, c.GuestAccessAllowed())
}

func TestLoadFromBytesEnvExpansion(t *testing.T) {
	os.Setenv("TEST_PRISM_KEY", "abc123")
	defer os.Unsetenv("TEST_PRISM_KEY")

	c, err := LoadFromBytes([]byte("providers:\n  googleApiKey: ${TEST_PRISM_KEY}\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.Providers.GoogleAPIKey)
}

func TestAddr(t *testing.T) {
	c, err := LoadFromBytes([]byte("host: 127.0.0.1\nport: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Addr())
}
