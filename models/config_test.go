package models

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "bcftools", cfg.Isec.BcftoolsPath)
	assert.Equal(t, "evidence-results", cfg.Elasticsearch.Index)
	assert.False(t, cfg.ElasticsearchEnabled())
}

func TestLoadPredictionConfig(t *testing.T) {
	t.Setenv("ALPHA_GENOME_KEY", "secret")
	t.Setenv("TRIO_PREDICTION_TIMEOUT", "30s")

	pc, err := LoadPredictionConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", pc.ApiKey)
	assert.Equal(t, 30*time.Second, pc.Timeout)
	assert.Equal(t, uint64(3), pc.MaxRetries)
	assert.Equal(t, 1<<20, pc.IntervalSize)
	assert.InDelta(t, 0.1, pc.Threshold, 1e-12)
}

func TestLoadPredictionConfigErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"blank key":          {"ALPHA_GENOME_KEY": "  "},
		"zero interval":      {"ALPHA_GENOME_KEY": "k", "TRIO_INTERVAL_SIZE": "0"},
		"negative threshold": {"ALPHA_GENOME_KEY": "k", "TRIO_DELTA_THRESHOLD": "-1"},
		"bad retries":        {"ALPHA_GENOME_KEY": "k", "TRIO_PREDICTION_MAX_RETRIES": "many"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadPredictionConfig()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("ALPHA_GENOME_KEY", "")
		require.NoError(t, os.Unsetenv("ALPHA_GENOME_KEY"))
		_, err := LoadPredictionConfig()
		assert.True(t, errors.Is(err, ErrConfiguration))
	})
}
