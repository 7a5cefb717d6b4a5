package rescheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"denovo/pipeline/logger"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/services/catalog"
	"denovo/pipeline/services/evidence"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// EvidenceRunner is satisfied by *evidence.EvidenceService.
type EvidenceRunner interface {
	Run(ctx context.Context, cat *catalog.Catalog, opts evidence.Options) (*dtos.RunSummary, error)
}

type (
	RescheduleService struct {
		runner  EvidenceRunner
		catalog *catalog.Catalog
		limit   int
		every   time.Duration
		maxRuns int
	}
)

func NewRescheduleService(runner EvidenceRunner, cat *catalog.Catalog, limit int, every time.Duration, maxRuns int) *RescheduleService {
	return &RescheduleService{
		runner:  runner,
		catalog: cat,
		limit:   limit,
		every:   every,
		maxRuns: maxRuns,
	}
}

type outcome struct {
	summary *dtos.RunSummary
	err     error
}

// Run reruns the evidence stage in resume mode every interval until no
// variant is failed, maxRuns reruns have happened (when positive), a run
// errors, or ctx is done. It returns the last run's summary.
func (rs *RescheduleService) Run(ctx context.Context) (*dtos.RunSummary, error) {
	if rs.every <= 0 {
		return nil, errors.New("retry interval must be positive")
	}

	var (
		mu   sync.Mutex
		last *dtos.RunSummary
		runs int
		done = make(chan outcome, 1)
	)
	finish := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}

	// setup cron job
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(rs.every).StartAt(time.Now().Add(rs.every)).SingletonMode().Do(func() {
		mu.Lock()
		runs++
		run := runs
		mu.Unlock()

		logger.Info("rerunning evidence stage for failed variants", zap.Int("attempt", run))
		summary, err := rs.runner.Run(ctx, rs.catalog, evidence.Options{Resume: true, Limit: rs.limit})
		if err != nil {
			finish(outcome{err: err})
			return
		}

		mu.Lock()
		last = summary
		mu.Unlock()

		switch {
		case summary.Failed == 0:
			logger.Info("no failed variants remain", zap.Int("attempt", run))
			finish(outcome{summary: summary})
		case rs.maxRuns > 0 && run >= rs.maxRuns:
			logger.Warn("giving up on failed variants", zap.Int("attempt", run), zap.Strings("failed", summary.FailedIds))
			finish(outcome{summary: summary})
		default:
			logger.Info("failed variants remain", zap.Int("failed", summary.Failed), zap.Duration("next", rs.every))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reruns: %w", err)
	}

	s.StartAsync()
	defer s.Stop()

	select {
	case o := <-done:
		return o.summary, o.err
	case <-ctx.Done():
		mu.Lock()
		defer mu.Unlock()
		return last, ctx.Err()
	}
}
