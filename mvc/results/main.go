package results

import (
	"errors"
	"net/http"
	"strings"

	"denovo/pipeline/contexts"
	"denovo/pipeline/logger"
	"denovo/pipeline/models/constants/chromosome"
	"denovo/pipeline/models/dtos"
	errorsUtils "denovo/pipeline/models/dtos/errors"
	"denovo/pipeline/models/indexes"
	esRepo "denovo/pipeline/repositories/elasticsearch"
	resultsRepo "denovo/pipeline/repositories/results"

	. "github.com/ahmetb/go-linq"
	"github.com/labstack/echo"
	"go.uber.org/zap"
)

// GetSummary returns run_summary.json together with the row counts of the
// aggregate tables.
func GetSummary(c echo.Context) error {
	store := c.(*contexts.PipelineContext).Store

	summary, err := store.ReadRunSummary()
	if errors.Is(err, resultsRepo.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorsUtils.CreateSimpleNotFound("no completed run found"))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorsUtils.CreateSimpleInternalServerError(err.Error()))
	}

	rows, err := store.ReadAggregate()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorsUtils.CreateSimpleInternalServerError(err.Error()))
	}
	skipped, err := store.ReadSkipped()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorsUtils.CreateSimpleInternalServerError(err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary":       summary,
		"aggregateRows": len(rows),
		"skippedRows":   len(skipped),
	})
}

func GetResults(c echo.Context) error {
	pc := c.(*contexts.PipelineContext)

	all, err := pc.Store.ListResults()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorsUtils.CreateSimpleInternalServerError(err.Error()))
	}

	gene := c.QueryParam("gene")

	var filtered []*indexes.EvidenceResult
	From(all).WhereT(func(r *indexes.EvidenceResult) bool {
		return (pc.Status == "" || string(r.Status) == pc.Status) &&
			(pc.Classification == "" || string(r.Classification) == pc.Classification) &&
			(pc.Chromosome == "" || strings.EqualFold(chromosome.WithPrefix(r.Chrom), pc.Chromosome)) &&
			(gene == "" || strings.EqualFold(r.Gene, gene))
	}).ToSlice(&filtered)

	if filtered == nil {
		filtered = []*indexes.EvidenceResult{}
	}

	return c.JSON(http.StatusOK, dtos.ResultsResponse{
		Status:  http.StatusOK,
		Message: "Success",
		Count:   len(filtered),
		Results: filtered,
	})
}

// GetResultById reads the per-variant file, falling back to the
// elasticsearch index when one is configured.
func GetResultById(c echo.Context) error {
	pc := c.(*contexts.PipelineContext)
	id := c.Param("id")

	r, err := pc.Store.LoadResult(id)
	if errors.Is(err, resultsRepo.ErrNotFound) && pc.Es7Client != nil {
		r, err = esRepo.GetEvidenceResultById(c.Request().Context(), pc.Es7Client, pc.Config.Elasticsearch.Index, id)
		if errors.Is(err, esRepo.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, errorsUtils.CreateSimpleNotFound("no result for id "+id))
		}
	}
	if errors.Is(err, resultsRepo.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorsUtils.CreateSimpleNotFound("no result for id "+id))
	}
	if err != nil {
		logger.Error("failed to load result", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorsUtils.CreateSimpleInternalServerError(err.Error()))
	}
	return c.JSON(http.StatusOK, r)
}
