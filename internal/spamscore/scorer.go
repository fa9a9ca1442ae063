package spamscore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DeeipChheda/warmup-master-main/internal/observability"
)

// ErrAnalysisUnavailable is returned by analyzers that could not produce a
// usable result. The scorer never surfaces it.
var ErrAnalysisUnavailable = errors.New("content analysis unavailable")

const (
	DefaultAnalyzerTimeout = 15 * time.Second
	MaxRecommendations     = 5
)

// Analyzer is an optional external content scorer.
type Analyzer interface {
	Analyze(ctx context.Context, content Content) (Analysis, error)
}

// Scorer prefers the registered analyzer and degrades to Heuristic.
type Scorer struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewScorer accepts a nil analyzer; every request is then answered by the
// heuristic.
func NewScorer(analyzer Analyzer, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		analyzer: analyzer,
		timeout:  DefaultAnalyzerTimeout,
		logger:   logger,
	}
}

func (s *Scorer) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *Scorer) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

// Score never fails.
func (s *Scorer) Score(ctx context.Context, content Content) Analysis {
	if s.analyzer == nil {
		s.metrics.IncScorerFallback("not_configured")
		return Heuristic(content)
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(analyzeCtx, content)
	if err != nil {
		reason := "error"
		if errors.Is(err, ErrAnalysisUnavailable) {
			reason = "unavailable"
		}
		observability.WithContextLogger(s.logger, ctx).Warn("content analyzer failed, using heuristic",
			zap.String("reason", reason),
			zap.Error(err),
		)
		s.metrics.IncScorerFallback(reason)
		return Heuristic(content)
	}

	return Normalize(analysis)
}

// Normalize clamps analyzer output into the ranges the heuristic guarantees.
func Normalize(a Analysis) Analysis {
	a.Score = clampScore(a.Score)
	a.RiskLevel = RiskLevelFor(a.Score)
	a.PredictedInboxRate = min(max(a.PredictedInboxRate, 0), MaxScore)
	if len(a.Recommendations) > MaxRecommendations {
		a.Recommendations = a.Recommendations[:MaxRecommendations]
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = []string{LooksGoodRecommendation}
	}
	if a.Source == "" {
		a.Source = SourceAnalyzer
	}
	return a
}
