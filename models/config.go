package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrConfiguration marks failures that must stop the pipeline before any work starts.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	Debug bool `envconfig:"TRIO_DEBUG" default:"false"`

	Isec struct {
		ContainerRuntime string `envconfig:"TRIO_CONTAINER_RUNTIME"`
		Image            string `envconfig:"TRIO_BCFTOOLS_IMAGE" default:"quay.io/biocontainers/bcftools:1.17--haef29d1_0"`
		BcftoolsPath     string `envconfig:"TRIO_BCFTOOLS_PATH" default:"bcftools"`
		TabixPath        string `envconfig:"TRIO_TABIX_PATH" default:"tabix"`
	}
	Output struct {
		Dir         string `envconfig:"TRIO_OUTPUT_DIR" default:"outputs"`
		CatalogPath string `envconfig:"TRIO_CATALOG_PATH"`
	}
	Elasticsearch struct {
		Url      string `envconfig:"TRIO_ES_URL"`
		Username string `envconfig:"TRIO_ES_USERNAME"`
		Password string `envconfig:"TRIO_ES_PASSWORD"`
		Index    string `envconfig:"TRIO_ES_INDEX" default:"evidence-results"`
	}
	Serve struct {
		Port string `envconfig:"TRIO_SERVE_PORT" default:"5000"`
	}
}

// PredictionConfig is processed separately so that the set-difference
// stage can run without a service token.
type PredictionConfig struct {
	ApiKey       string        `envconfig:"ALPHA_GENOME_KEY" required:"true"`
	Url          string        `envconfig:"TRIO_PREDICTION_URL" default:"https://api.alphagenome.example/"`
	MaxRetries   uint64        `envconfig:"TRIO_PREDICTION_MAX_RETRIES" default:"3"`
	Timeout      time.Duration `envconfig:"TRIO_PREDICTION_TIMEOUT" default:"5m"`
	IntervalSize int           `envconfig:"TRIO_INTERVAL_SIZE" default:"1048576"`
	Threshold    float64       `envconfig:"TRIO_DELTA_THRESHOLD" default:"0.1"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &cfg, nil
}

func LoadPredictionConfig() (*PredictionConfig, error) {
	var pc PredictionConfig
	if err := envconfig.Process("", &pc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if strings.TrimSpace(pc.ApiKey) == "" {
		return nil, fmt.Errorf("%w: ALPHA_GENOME_KEY is empty", ErrConfiguration)
	}
	if pc.IntervalSize <= 0 {
		return nil, fmt.Errorf("%w: TRIO_INTERVAL_SIZE must be positive, got %d", ErrConfiguration, pc.IntervalSize)
	}
	if pc.Threshold <= 0 {
		return nil, fmt.Errorf("%w: TRIO_DELTA_THRESHOLD must be positive, got %g", ErrConfiguration, pc.Threshold)
	}
	return &pc, nil
}

func (c *Config) ElasticsearchEnabled() bool {
	return c.Elasticsearch.Url != ""
}
