package middleware

import (
	"net/http"

	"denovo/pipeline/contexts"
	"denovo/pipeline/models/constants/chromosome"
	errorsUtils "denovo/pipeline/models/dtos/errors"

	"github.com/labstack/echo"
)

/*
	Echo middleware to ensure that an optional `chromosome` HTTP query parameter is valid
*/
func ValidateOptionalChromosomeAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		chromQP := c.QueryParam("chromosome")
		if len(chromQP) == 0 {
			return next(c)
		}

		if !chromosome.IsValidHumanChromosome(chromQP) {
			return c.JSON(http.StatusBadRequest, errorsUtils.CreateSimpleBadRequest("Please provide a valid 'chromosome' (1-22, X, Y, M)!"))
		}

		if pc, ok := c.(*contexts.PipelineContext); ok {
			// "1", "chr1" -> "chr1"; "MT" -> "chrM"
			pc.Chromosome = chromosome.WithPrefix(chromQP)
		}
		return next(c)
	}
}
