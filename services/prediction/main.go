package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"denovo/pipeline/logger"
	"denovo/pipeline/models"
	c "denovo/pipeline/models/constants"
	"denovo/pipeline/models/constants/chromosome"
	m "denovo/pipeline/models/constants/modality"
	"denovo/pipeline/models/indexes"

	"github.com/Jeffail/gabs"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const predictPath = "v1/variant:predict"

// ErrMalformedResponse marks a 2xx response that cannot be interpreted.
// Retrying it does not help.
var ErrMalformedResponse = errors.New("malformed prediction response")

// Request asks for one modality's reference and alternate tracks.
type Request struct {
	Interval indexes.Interval
	Chrom    string
	Position int
	Ref      string
	Alt      string
	Modality c.Modality
}

// Track holds predicted values laid out as positions x tracks. A
// one-dimensional service response becomes a single column.
type Track struct {
	Interval indexes.Interval
	Values   [][]float64
}

func (t Track) Len() int { return len(t.Values) }

type Prediction struct {
	Reference Track
	Alternate Track
}

type Predictor interface {
	Predict(ctx context.Context, req Request) (*Prediction, error)
}

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prediction service returned %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether retrying the same request may succeed.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient classifies any error returned by Predict. Transport failures
// are transient, as are 429 and 5xx replies.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(cfg *models.PredictionConfig) *Client {
	return NewClientWithHttp(cfg.Url, cfg.ApiKey, &http.Client{Timeout: cfg.Timeout})
}

func NewClientWithHttp(url, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{url: strings.TrimRight(url, "/"), apiKey: apiKey, http: hc}
}

func (cl *Client) Predict(ctx context.Context, req Request) (*Prediction, error) {
	outputType := m.OutputType(req.Modality)
	if outputType == "" {
		return nil, fmt.Errorf("unknown modality %q", req.Modality)
	}

	body, err := requestBody(req, outputType)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.url+"/"+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", cl.apiKey)

	logger.Debug("requesting prediction", zap.String("modality", string(req.Modality)),
		zap.String("chrom", req.Chrom), zap.Int("pos", req.Position))

	resp, err := cl.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}

	return parsePrediction(respBody, m.OutputKey(req.Modality))
}

func requestBody(req Request, outputType string) ([]byte, error) {
	chrom := chromosome.WithPrefix(req.Chrom)

	payload := gabs.New()
	payload.SetP(chrom, "interval.chromosome")
	payload.SetP(req.Interval.Start, "interval.start")
	payload.SetP(req.Interval.End, "interval.end")
	payload.SetP(chrom, "variant.chromosome")
	payload.SetP(req.Position, "variant.position")
	payload.SetP(req.Ref, "variant.reference_bases")
	payload.SetP(req.Alt, "variant.alternate_bases")
	payload.Array("requested_outputs")
	payload.ArrayAppend(outputType, "requested_outputs")
	payload.Array("ontology_terms")

	return payload.Bytes(), nil
}

func parsePrediction(body []byte, key string) (*Prediction, error) {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	ref, err := parseTrack(parsed, "reference", key)
	if err != nil {
		return nil, err
	}
	alt, err := parseTrack(parsed, "alternate", key)
	if err != nil {
		return nil, err
	}
	if ref.Len() != alt.Len() {
		return nil, fmt.Errorf("%w: reference has %d positions, alternate has %d", ErrMalformedResponse, ref.Len(), alt.Len())
	}
	return &Prediction{Reference: ref, Alternate: alt}, nil
}

func parseTrack(parsed *gabs.Container, allele, key string) (Track, error) {
	node := parsed.Search(allele, key)
	if node == nil || node.Data() == nil {
		return Track{}, fmt.Errorf("%w: missing %s.%s", ErrMalformedResponse, allele, key)
	}

	var track Track
	if iv := node.Search("interval").Data(); iv != nil {
		if err := mapstructure.Decode(iv, &track.Interval); err != nil {
			return Track{}, fmt.Errorf("%w: %s.%s.interval: %v", ErrMalformedResponse, allele, key, err)
		}
	}

	raw, ok := node.Search("values").Data().([]interface{})
	if !ok || len(raw) == 0 {
		return Track{}, fmt.Errorf("%w: %s.%s has no values", ErrMalformedResponse, allele, key)
	}

	values, err := toMatrix(raw)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %s.%s.values: %v", ErrMalformedResponse, allele, key, err)
	}
	track.Values = values
	return track, nil
}

func toMatrix(raw []interface{}) ([][]float64, error) {
	out := make([][]float64, len(raw))
	width := -1
	for i, row := range raw {
		switch r := row.(type) {
		case []interface{}:
			cols := make([]float64, len(r))
			for j, v := range r {
				f, err := toFloat(v)
				if err != nil {
					return nil, err
				}
				cols[j] = f
			}
			out[i] = cols
		default:
			f, err := toFloat(r)
			if err != nil {
				return nil, err
			}
			out[i] = []float64{f}
		}
		if width == -1 {
			width = len(out[i])
		} else if len(out[i]) != width {
			return nil, fmt.Errorf("ragged row %d", i)
		}
	}
	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("non-numeric value %v", v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
