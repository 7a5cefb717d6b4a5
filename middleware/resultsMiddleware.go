package middleware

import (
	"fmt"
	"net/http"

	"denovo/pipeline/contexts"
	cl "denovo/pipeline/models/constants/classification"
	s "denovo/pipeline/models/constants/status"
	errorsUtils "denovo/pipeline/models/dtos/errors"
	"denovo/pipeline/utils"

	"github.com/labstack/echo"
)

var (
	validStatuses = []string{
		string(s.Succeeded), string(s.Failed), string(s.Skipped),
	}
	validClassifications = []string{
		string(cl.LikelyPathogenic), string(cl.Uncertain), string(cl.LikelyBenign), string(cl.NotAssessed),
	}
)

/*
	Echo middleware to ensure that an optional `status` HTTP query parameter is valid
*/
func ValidateOptionalStatusAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		statusQP := c.QueryParam("status")
		if len(statusQP) == 0 {
			return next(c)
		}
		if !utils.StringInSlice(statusQP, validStatuses) {
			return c.JSON(http.StatusBadRequest, errorsUtils.CreateSimpleBadRequest(fmt.Sprintf("Invalid 'status'; expected one of %v", validStatuses)))
		}

		if pc, ok := c.(*contexts.PipelineContext); ok {
			pc.Status = statusQP
		}
		return next(c)
	}
}

/*
	Echo middleware to ensure that an optional `classification` HTTP query parameter is valid
*/
func ValidateOptionalClassificationAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		classQP := c.QueryParam("classification")
		if len(classQP) == 0 {
			return next(c)
		}
		if !utils.StringInSlice(classQP, validClassifications) {
			return c.JSON(http.StatusBadRequest, errorsUtils.CreateSimpleBadRequest(fmt.Sprintf("Invalid 'classification'; expected one of %v", validClassifications)))
		}

		if pc, ok := c.(*contexts.PipelineContext); ok {
			pc.Classification = classQP
		}
		return next(c)
	}
}
