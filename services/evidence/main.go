package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"denovo/pipeline/logger"
	"denovo/pipeline/models"
	c "denovo/pipeline/models/constants"
	cl "denovo/pipeline/models/constants/classification"
	m "denovo/pipeline/models/constants/modality"
	s "denovo/pipeline/models/constants/status"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/services/catalog"
	"denovo/pipeline/services/prediction"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultIntervalSize = 1 << 20

// ResultStore persists results as they complete.
type ResultStore interface {
	SaveResult(r *indexes.EvidenceResult) error
	LoadResult(id string) (*indexes.EvidenceResult, error)
	WriteAggregate(results []*indexes.EvidenceResult) error
	WriteRunSummary(summary *dtos.RunSummary) error
}

// Publisher mirrors results to a secondary sink. Publishing errors are
// logged and never fail a variant.
type Publisher interface {
	Publish(ctx context.Context, r *indexes.EvidenceResult) error
}

type Options struct {
	// Resume reuses stored succeeded and skipped results.
	Resume bool
	// Limit processes only the first n catalog entries when positive.
	Limit int
}

type (
	EvidenceService struct {
		predictor    prediction.Predictor
		store        ResultStore
		publisher    Publisher
		threshold    float64
		intervalSize int
		maxRetries   uint64
		newBackOff   func() backoff.BackOff
		now          func() time.Time
	}
)

func NewEvidenceService(cfg *models.PredictionConfig, predictor prediction.Predictor, store ResultStore) *EvidenceService {
	svc := &EvidenceService{
		predictor:    predictor,
		store:        store,
		threshold:    cfg.Threshold,
		intervalSize: cfg.IntervalSize,
		maxRetries:   cfg.MaxRetries,
		newBackOff:   defaultBackOff,
		now:          time.Now,
	}
	if svc.threshold <= 0 {
		svc.threshold = DefaultThreshold
	}
	if svc.intervalSize <= 0 {
		svc.intervalSize = DefaultIntervalSize
	}
	return svc
}

func (es *EvidenceService) WithPublisher(p Publisher) *EvidenceService {
	es.publisher = p
	return es
}

// WithBackOff replaces the delay policy between attempts.
func (es *EvidenceService) WithBackOff(f func() backoff.BackOff) *EvidenceService {
	es.newBackOff = f
	return es
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 10 * time.Minute
	return b
}

// Run assesses every catalog entry in order. Every variant ends up in the
// aggregate output whatever its outcome, including a per-variant file that
// could not be written. Only aggregate or summary write errors and
// cancellation abort the run.
func (es *EvidenceService) Run(ctx context.Context, cat *catalog.Catalog, opts Options) (*dtos.RunSummary, error) {
	variants := cat.Head(opts.Limit).Variants()

	summary := &dtos.RunSummary{
		RunId:        uuid.NewString(),
		StartedAt:    es.now().UTC(),
		Threshold:    es.threshold,
		IntervalSize: es.intervalSize,
		Total:        len(variants),
	}
	logger.Info("starting evidence run", zap.String("runId", summary.RunId),
		zap.Int("variants", len(variants)), zap.Bool("resume", opts.Resume))

	results := make([]*indexes.EvidenceResult, 0, len(variants))
	for i, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evidence run interrupted after %d of %d variants: %w", i, len(variants), err)
		}

		var r *indexes.EvidenceResult
		if opts.Resume {
			r = es.reusable(v)
		}
		if r != nil {
			summary.Reused++
			logger.Info("reusing stored result", zap.String("variant", r.Id), zap.String("status", string(r.Status)))
		} else {
			r = es.Assess(ctx, v, summary.RunId)
			if err := es.store.SaveResult(r); err != nil {
				logger.Error("failed to persist result", zap.String("variant", r.Id), zap.Error(err))
				r.Status = s.Failed
				r.Classification = cl.NotAssessed
				r.Confidence = ""
				r.Error = fmt.Sprintf("failed to persist result: %v", err)
			} else {
				es.publish(ctx, r)
			}
		}

		results = append(results, r)
		if err := es.store.WriteAggregate(results); err != nil {
			return nil, err
		}
	}

	FillTallies(summary, results)
	summary.CompletedAt = es.now().UTC()
	if err := es.store.WriteRunSummary(summary); err != nil {
		return nil, err
	}

	logger.Info("evidence run complete", zap.String("runId", summary.RunId),
		zap.Int("succeeded", summary.Succeeded), zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped), zap.Int("reused", summary.Reused))
	return summary, nil
}

func (es *EvidenceService) reusable(v catalog.CandidateVariant) *indexes.EvidenceResult {
	prev, err := es.store.LoadResult(v.Id())
	if err != nil || prev == nil {
		return nil
	}
	if prev.Chrom != v.Chrom || prev.Pos != v.Pos || prev.Ref != v.Ref || prev.Alt != v.Alt {
		return nil
	}
	if prev.Status != s.Succeeded && prev.Status != s.Skipped {
		return nil
	}
	return prev
}

func (es *EvidenceService) publish(ctx context.Context, r *indexes.EvidenceResult) {
	if es.publisher == nil {
		return
	}
	if err := es.publisher.Publish(ctx, r); err != nil {
		logger.Warn("failed to publish result", zap.String("variant", r.Id), zap.Error(err))
	}
}

// Assess produces the result for a single variant. It never returns nil.
func (es *EvidenceService) Assess(ctx context.Context, v catalog.CandidateVariant, runId string) *indexes.EvidenceResult {
	r := &indexes.EvidenceResult{
		Id:          v.Id(),
		RunId:       runId,
		Name:        v.Name,
		Gene:        v.Gene,
		Chrom:       v.Chrom,
		Pos:         v.Pos,
		Ref:         v.Ref,
		Alt:         v.Alt,
		Strategy:    v.Strategy,
		Prior:       v.Prior(),
		Consequence: v.Category(),
		Evidence:    map[c.Modality]*indexes.ModalityEvidence{},
		StartedAt:   es.now().UTC(),
	}
	defer func() { r.CompletedAt = es.now().UTC() }()

	if reason := SkipReason(v.Ref, v.Alt); reason != s.NoReason {
		r.Status = s.Skipped
		r.SkipReason = reason
		r.Classification = cl.NotAssessed
		r.Rationale = fmt.Sprintf("not submitted for prediction: %s", reason)
		logger.Info("skipping variant", zap.String("variant", r.Id), zap.String("reason", string(reason)))
		return r
	}

	iv := IntervalFor(v.Chrom, v.Pos, es.intervalSize)
	r.Interval = &iv

	deltas := map[c.Modality]float64{}
	var failures []string
	for _, mod := range v.Modalities() {
		ev := es.assessModality(ctx, v, iv, mod)
		r.Evidence[mod] = ev
		if ev.Status == s.Failed {
			failures = append(failures, fmt.Sprintf("%s: %s", mod, ev.Error))
			continue
		}
		deltas[mod] = ev.Delta
	}

	if len(failures) > 0 {
		r.Status = s.Failed
		r.Classification = cl.NotAssessed
		r.Error = strings.Join(failures, "; ")
		r.Rationale = "functional evidence incomplete"
		logger.Error("variant failed", zap.String("variant", r.Id), zap.String("error", r.Error))
		return r
	}

	verdict := Classify(deltas, r.Prior, es.threshold)
	r.Status = s.Succeeded
	r.Classification = verdict.Classification
	r.Confidence = verdict.Confidence
	r.Rationale = verdict.Rationale
	logger.Info("variant assessed", zap.String("variant", r.Id),
		zap.String("classification", string(r.Classification)), zap.String("confidence", string(r.Confidence)))
	return r
}

func (es *EvidenceService) assessModality(ctx context.Context, v catalog.CandidateVariant, iv indexes.Interval, mod c.Modality) *indexes.ModalityEvidence {
	req := prediction.Request{
		Interval: iv,
		Chrom:    v.Chrom,
		Position: v.Pos,
		Ref:      v.Ref,
		Alt:      v.Alt,
		Modality: mod,
	}

	var (
		attempts int
		pred     *prediction.Prediction
	)
	op := func() error {
		attempts++
		p, err := es.predictor.Predict(ctx, req)
		if err != nil {
			if !prediction.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		pred = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("prediction attempt failed, retrying",
			zap.String("variant", v.Id()), zap.String("modality", string(mod)),
			zap.Int("attempt", attempts), zap.Duration("wait", wait), zap.Error(err))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(es.newBackOff(), es.maxRetries), ctx)
	err := backoff.RetryNotify(op, b, notify)

	if err == nil && pred != nil {
		ev, sumErr := Summarize(mod, pred, v.Pos, iv)
		if sumErr == nil {
			ev.Status = s.Succeeded
			ev.Attempts = attempts
			ev.Confidence = ModalityConfidence(ev.Delta, es.threshold)
			return ev
		}
		err = sumErr
	}
	if err == nil {
		err = errors.New("no prediction returned")
	}

	return &indexes.ModalityEvidence{
		Modality:   mod,
		OutputType: m.OutputType(mod),
		Status:     s.Failed,
		Attempts:   attempts,
		Error:      err.Error(),
	}
}
