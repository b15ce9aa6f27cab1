package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/meo-insight/internal/gbp"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/workerpool"
	"github.com/lk2023060901/meo-insight/internal/places/provider"
	placestypes "github.com/lk2023060901/meo-insight/internal/places/types"
	"go.uber.org/zap"
)

// OrchestratorConfig 检索流程配置
type OrchestratorConfig struct {
	DisplayLanguage string
	LookupTimeout   time.Duration
	CallTimeout     time.Duration
}

// Orchestrator runs one search: a single lookup followed by an independent
// claim -> analysis -> translation chain per business, joined when all finish.
type Orchestrator struct {
	places     provider.Provider
	claims     gbp.ClaimEstimator
	analyzer   *Analyzer
	translator *Translator
	pool       *workerpool.Pool
	cfg        OrchestratorConfig
	logger     *logger.Logger
}

// NewOrchestrator 创建检索编排器
func NewOrchestrator(
	places provider.Provider,
	claims gbp.ClaimEstimator,
	analyzer *Analyzer,
	translator *Translator,
	pool *workerpool.Pool,
	cfg OrchestratorConfig,
	lgr *logger.Logger,
) *Orchestrator {
	if cfg.DisplayLanguage == "" {
		cfg.DisplayLanguage = DefaultTargetLanguage
	}
	if lgr == nil {
		lgr = logger.L()
	}
	return &Orchestrator{
		places:     places,
		claims:     claims,
		analyzer:   analyzer,
		translator: translator,
		pool:       pool,
		cfg:        cfg,
		logger:     lgr.Named("orchestrator"),
	}
}

// Run returns an error only when the lookup fails. Per-business failures
// degrade that entry and never abort the batch.
func (o *Orchestrator) Run(ctx context.Context, query string) (*types.SearchOutcome, error) {
	log := o.logger.WithContext(ctx)
	start := time.Now()

	lookupCtx, cancel := withTimeout(ctx, o.cfg.LookupTimeout)
	places, err := o.places.Search(lookupCtx, query)
	cancel()
	if err != nil {
		log.Error("place lookup failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if len(places) == 0 {
		log.Info("search finished with no matches",
			zap.String("query", query),
			zap.Duration("duration", time.Since(start)))
		return &types.SearchOutcome{
			State:   types.SearchStateEmpty,
			Query:   query,
			Results: []types.ResultEntry{},
		}, nil
	}

	results := make([]types.ResultEntry, len(places))
	group := o.pool.NewGroup()
	for i, place := range places {
		group.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("analysis chain panicked, degrading entry",
						zap.String("place_id", place.ID),
						zap.Any("panic", r))
					results[i] = types.ResultEntry{
						Place:    place,
						Analysis: types.DegradedAnalysis(),
					}
				}
			}()
			results[i] = o.processPlace(ctx, place)
		})
	}
	group.Wait()

	log.Info("search finished",
		zap.String("query", query),
		zap.Int("records", len(results)),
		zap.Duration("duration", time.Since(start)))

	return &types.SearchOutcome{
		State:   types.SearchStateSuccess,
		Query:   query,
		Results: results,
	}, nil
}

func (o *Orchestrator) processPlace(ctx context.Context, place placestypes.Place) types.ResultEntry {
	claimCtx, cancel := withTimeout(ctx, o.cfg.CallTimeout)
	claimed := o.claims.IsClaimed(claimCtx, place.GoogleMapsURI)
	cancel()

	analysisCtx, cancel := withTimeout(ctx, o.cfg.CallTimeout)
	analysis := o.analyzer.Analyze(analysisCtx, place, claimed)
	cancel()

	entry := types.ResultEntry{
		Place:       place,
		Analysis:    analysis,
		GBPVerified: claimed,
	}

	if o.needsTranslation(place) {
		translateCtx, cancel := withTimeout(ctx, o.cfg.CallTimeout)
		translated := o.translator.Translate(translateCtx, place.ReviewSummary.Text, o.cfg.DisplayLanguage)
		cancel()
		entry.TranslatedReview = &translated
	}

	return entry
}

// needsTranslation is true when a review summary exists in another language
func (o *Orchestrator) needsTranslation(place placestypes.Place) bool {
	return place.ReviewSummary != nil && place.ReviewSummary.LanguageCode != o.cfg.DisplayLanguage
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
