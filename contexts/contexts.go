package contexts

import (
	"denovo/pipeline/models"
	"denovo/pipeline/repositories/results"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/echo"
)

type (
	// "Helper" Context to pass into routes that need
	//  the result store and other variables
	PipelineContext struct {
		echo.Context
		Config    *models.Config
		Store     *results.FileStore
		Es7Client *elasticsearch.Client // nil unless TRIO_ES_URL is set

		// validated query filters
		Chromosome     string
		Status         string
		Classification string
	}
)
