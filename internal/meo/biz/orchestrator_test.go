package biz

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lk2023060901/meo-insight/internal/gbp"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
	"github.com/lk2023060901/meo-insight/internal/places/provider"
	placestypes "github.com/lk2023060901/meo-insight/internal/places/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	places []placestypes.Place
	err    error
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]placestypes.Place, error) {
	return s.places, s.err
}

func (s *stubProvider) GetID() placestypes.ProviderID { return "stub" }

type panickingEstimator struct {
	inner   gbp.ClaimEstimator
	panicOn string
}

func (p *panickingEstimator) IsClaimed(ctx context.Context, mapLink *string) bool {
	if mapLink != nil && strings.Contains(*mapLink, p.panicOn) {
		panic("probe exploded")
	}
	return p.inner.IsClaimed(ctx, mapLink)
}

func fixtureProvider(t *testing.T) provider.Provider {
	t.Helper()
	p, err := provider.NewFixtureProvider(&placestypes.ProviderConfig{ID: placestypes.ProviderFixture})
	require.NoError(t, err)
	return p
}

func newTestOrchestrator(t *testing.T, places provider.Provider, claims gbp.ClaimEstimator, gen *fakeGenerator, cfg OrchestratorConfig) *Orchestrator {
	t.Helper()
	if claims == nil {
		claims = gbp.NewHeuristicEstimator(gbp.DefaultMarker, 0, 0)
	}
	return NewOrchestrator(places, claims,
		NewAnalyzer(gen, nopLogger()),
		NewTranslator(gen, nopLogger()),
		newTestPool(t), cfg, nopLogger())
}

func TestOrchestrator_ShinjukuScenario(t *testing.T) {
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, fixtureProvider(t), nil, gen, OrchestratorConfig{DisplayLanguage: "ja"})

	outcome, err := o.Run(context.Background(), "新宿の居酒屋")
	require.NoError(t, err)
	assert.Equal(t, types.SearchStateSuccess, outcome.State)
	assert.Equal(t, "新宿の居酒屋", outcome.Query)
	require.Len(t, outcome.Results, 5)

	for i, entry := range outcome.Results {
		id := entry.Place.ID
		assert.Equal(t, string(rune('1'+i)), id, "lookup order preserved")
		assert.Equal(t, id != "4" && id != "5", entry.GBPVerified, "claim of %s", id)
		assert.Equal(t, 7.5, entry.Analysis.MEOScore)

		if id == "2" {
			require.NotNil(t, entry.TranslatedReview)
			assert.Equal(t, "翻訳済みテキスト", *entry.TranslatedReview)
		} else {
			assert.Nil(t, entry.TranslatedReview, "place %s should not be translated", id)
		}
	}

	prompts := gen.translations()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Best tonkotsu ramen in town!")
	assert.Equal(t, 5, gen.structuredCalls)
}

func TestOrchestrator_TranslatesIntoDisplayLanguage(t *testing.T) {
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, fixtureProvider(t), nil, gen, OrchestratorConfig{DisplayLanguage: "en"})

	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)

	translated := map[string]bool{}
	for _, entry := range outcome.Results {
		translated[entry.Place.ID] = entry.TranslatedReview != nil
	}
	// ids 1 and 4 carry ja summaries; 3 and 5 have none; 2 is already en
	assert.Equal(t, map[string]bool{"1": true, "2": false, "3": false, "4": true, "5": false}, translated)
	for _, p := range gen.translations() {
		assert.Contains(t, p, "英語に翻訳")
	}
}

func TestOrchestrator_EmptyQueryIsEmptyNotFailed(t *testing.T) {
	gen := &fakeGenerator{}
	o := newTestOrchestrator(t, fixtureProvider(t), nil, gen, OrchestratorConfig{})

	outcome, err := o.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, types.SearchStateEmpty, outcome.State)
	assert.Empty(t, outcome.Results)
	assert.Zero(t, gen.structuredCalls)
}

func TestOrchestrator_LookupFailureIsFatal(t *testing.T) {
	perr := &placestypes.ProviderError{Provider: "stub", Code: "HTTP_500", Message: "down"}
	o := newTestOrchestrator(t, &stubProvider{err: perr}, nil, &fakeGenerator{}, OrchestratorConfig{})

	outcome, err := o.Run(context.Background(), "q")
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, perr)
}

func TestOrchestrator_AnalysisFailureDegradesEntry(t *testing.T) {
	gen := &fakeGenerator{
		structured: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "Shinjuku Ramen Master") {
				return "", errors.New("503")
			}
			return validAnalysisJSON, nil
		},
	}
	o := newTestOrchestrator(t, fixtureProvider(t), nil, gen, OrchestratorConfig{DisplayLanguage: "ja"})

	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 5)

	assert.Equal(t, types.DegradedAnalysis(), outcome.Results[1].Analysis)
	assert.Equal(t, 7.5, outcome.Results[0].Analysis.MEOScore)
	require.NotNil(t, outcome.Results[1].TranslatedReview, "translation still attempted")
}

func TestOrchestrator_PanicDegradesOnlyThatEntry(t *testing.T) {
	claims := &panickingEstimator{
		inner:   gbp.NewHeuristicEstimator(gbp.DefaultMarker, 0, 0),
		panicOn: "cid=33333",
	}
	o := newTestOrchestrator(t, fixtureProvider(t), claims, &fakeGenerator{}, OrchestratorConfig{DisplayLanguage: "ja"})

	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 5)

	broken := outcome.Results[2]
	assert.Equal(t, "3", broken.Place.ID)
	assert.False(t, broken.GBPVerified)
	assert.Equal(t, types.DegradedAnalysis(), broken.Analysis)

	assert.True(t, outcome.Results[0].GBPVerified)
	assert.Equal(t, 7.5, outcome.Results[0].Analysis.MEOScore)
}

func TestOrchestrator_CallTimeoutDegrades(t *testing.T) {
	block := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	gen := &fakeGenerator{structured: block, text: block}
	o := newTestOrchestrator(t, fixtureProvider(t), nil, gen, OrchestratorConfig{
		DisplayLanguage: "ja",
		CallTimeout:     30 * time.Millisecond,
	})

	start := time.Now()
	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	for _, entry := range outcome.Results {
		assert.Equal(t, 0.0, entry.Analysis.MEOScore)
		assert.NotEmpty(t, entry.Analysis.Strengths)
	}
	require.NotNil(t, outcome.Results[1].TranslatedReview)
	assert.Equal(t, types.TranslationFailed, *outcome.Results[1].TranslatedReview)
}

func TestOrchestrator_LookupTimeoutIsFatal(t *testing.T) {
	slow, err := provider.NewFixtureProvider(&placestypes.ProviderConfig{
		ID:           placestypes.ProviderFixture,
		FixtureDelay: time.Minute,
	})
	require.NoError(t, err)

	o := newTestOrchestrator(t, slow, nil, &fakeGenerator{}, OrchestratorConfig{LookupTimeout: 20 * time.Millisecond})

	_, err = o.Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// barrierEstimator holds every claim call until n calls have entered or the
// wait times out, recording whether all n were in flight together.
type barrierEstimator struct {
	n       int
	wait    time.Duration
	mu      sync.Mutex
	entered int
	all     chan struct{}
	met     atomic.Int32
}

func newBarrierEstimator(n int, wait time.Duration) *barrierEstimator {
	return &barrierEstimator{n: n, wait: wait, all: make(chan struct{})}
}

func (b *barrierEstimator) IsClaimed(ctx context.Context, mapLink *string) bool {
	b.mu.Lock()
	b.entered++
	if b.entered == b.n {
		close(b.all)
	}
	b.mu.Unlock()

	select {
	case <-b.all:
		b.met.Add(1)
	case <-time.After(b.wait):
	}
	return true
}

func stubPlaces(n int) []placestypes.Place {
	places := make([]placestypes.Place, n)
	for i := range places {
		id := strconv.Itoa(i + 1)
		link := "https://maps.google.com/?cid=" + id
		places[i] = placestypes.Place{
			ID:            id,
			DisplayName:   placestypes.LocalizedText{Text: "店舗" + id, LanguageCode: "ja"},
			GoogleMapsURI: &link,
		}
	}
	return places
}

func TestOrchestrator_ChainsRunConcurrently(t *testing.T) {
	barrier := newBarrierEstimator(5, 2*time.Second)
	o := newTestOrchestrator(t, &stubProvider{places: stubPlaces(5)}, barrier, &fakeGenerator{}, OrchestratorConfig{})

	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 5)
	assert.EqualValues(t, 5, barrier.met.Load(), "all five chains should be in flight at once")
}

// eventLog records claim and analysis calls in the order they happen
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) index(e string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Index(l.events, e)
}

type loggingEstimator struct {
	log *eventLog
}

func (e *loggingEstimator) IsClaimed(ctx context.Context, mapLink *string) bool {
	id := (*mapLink)[strings.LastIndex(*mapLink, "=")+1:]
	e.log.add("claim:" + id)
	return id != "2"
}

func TestOrchestrator_ClaimPrecedesAnalysis(t *testing.T) {
	events := &eventLog{}
	places := stubPlaces(3)
	gen := &fakeGenerator{
		structured: func(ctx context.Context, prompt string) (string, error) {
			for _, p := range places {
				if strings.Contains(prompt, p.DisplayName.Text) {
					events.add("analysis:" + p.ID)
				}
			}
			return validAnalysisJSON, nil
		},
	}
	o := newTestOrchestrator(t, &stubProvider{places: places}, &loggingEstimator{log: events}, gen, OrchestratorConfig{})

	outcome, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 3)

	for _, p := range places {
		claimAt := events.index("claim:" + p.ID)
		analysisAt := events.index("analysis:" + p.ID)
		require.NotEqual(t, -1, claimAt, "claim for %s", p.ID)
		require.NotEqual(t, -1, analysisAt, "analysis for %s", p.ID)
		assert.Less(t, claimAt, analysisAt, "claim before analysis for %s", p.ID)
	}
	assert.False(t, outcome.Results[1].GBPVerified)
	assert.True(t, outcome.Results[0].GBPVerified)
}
