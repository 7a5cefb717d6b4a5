package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"denovo/pipeline/logger"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/utils"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"go.uber.org/zap"
)

// EnsureEvidenceIndex creates the index with its mapping unless it exists.
func EnsureEvidenceIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	existsRes, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("failed to check index '%s': %w", index, err)
	}
	existsRes.Body.Close()
	if existsRes.StatusCode == 200 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{
		"mappings": indexes.EVIDENCE_INDEX_MAPPING,
	}); err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	res, err := esapi.IndicesCreateRequest{Index: index, Body: &buf}.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("failed to create index '%s': %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bracketString, body := utils.GetLeadingStringInBetweenSquareBrackets(res.String())
		// a concurrent creator may have won
		if strings.Contains(body, "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("failed to create index '%s': got '%s'", index, bracketString)
	}

	logger.Info("created elasticsearch index", zap.String("index", index))
	return nil
}

// IndexEvidenceResult upserts a result keyed by its variant id.
func IndexEvidenceResult(ctx context.Context, es *elasticsearch.Client, index string, r *indexes.EvidenceResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", r.Id, err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: r.Id,
		Body:       bytes.NewReader(b),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("index request for %s failed: %w", r.Id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bracketString, _ := utils.GetLeadingStringInBetweenSquareBrackets(res.String())
		return fmt.Errorf("failed to index %s: got '%s'", r.Id, bracketString)
	}
	return nil
}

var ErrDocumentNotFound = errors.New("document not found")

// GetEvidenceResultById fetches one stored document's source.
func GetEvidenceResultById(ctx context.Context, es *elasticsearch.Client, index string, id string) (*indexes.EvidenceResult, error) {
	res, err := esapi.GetRequest{Index: index, DocumentID: id}.Do(ctx, es)
	if err != nil {
		return nil, fmt.Errorf("get request for %s failed: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s in %s", ErrDocumentNotFound, id, index)
	}
	if res.IsError() {
		bracketString, _ := utils.GetLeadingStringInBetweenSquareBrackets(res.String())
		return nil, fmt.Errorf("failed to get document %s: got '%s'", id, bracketString)
	}

	var doc struct {
		Source indexes.EvidenceResult `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc.Source, nil
}

// Publisher mirrors evidence results into one index.
type Publisher struct {
	es          *elasticsearch.Client
	index       string
	initialized bool
}

func NewPublisher(es *elasticsearch.Client, index string) *Publisher {
	return &Publisher{es: es, index: index}
}

func (p *Publisher) Publish(ctx context.Context, r *indexes.EvidenceResult) error {
	if !p.initialized {
		if err := EnsureEvidenceIndex(ctx, p.es, p.index); err != nil {
			return err
		}
		p.initialized = true
	}
	return IndexEvidenceResult(ctx, p.es, p.index, r)
}
