// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "pagescope-cli", cfg.Logger.ServiceName)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.SettleWait)

	assert.Equal(t, 200, cfg.Extractor.MaxContentLength)
	assert.Equal(t, "Search Results", cfg.Extractor.HeaderLabel)

	assert.Equal(t, time.Second, cfg.Cache.ObserveInterval)
	assert.Empty(t, cfg.Database.URL, "archiving is off by default")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	v := viper.New()
	v.Set("logger.level", "debug")
	v.Set("extractor.max_content_length", 80)
	v.Set("extractor.header_label", "Products")
	v.Set("browser.headless", false)
	v.Set("database.url", "postgres://localhost/pagescope")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 80, cfg.Extractor.MaxContentLength)
	assert.Equal(t, "Products", cfg.Extractor.HeaderLabel)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "postgres://localhost/pagescope", cfg.Database.URL)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Run("tiny max content length", func(t *testing.T) {
		v := viper.New()
		v.Set("extractor.max_content_length", 2)

		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_content_length")
	})

	t.Run("non positive navigation timeout", func(t *testing.T) {
		v := viper.New()
		v.Set("browser.navigation_timeout", "0s")

		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "navigation_timeout")
	})
}
