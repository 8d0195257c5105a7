package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadilmartias/career-assessment/internal/apperr"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/repository/testutil"
	"github.com/fadilmartias/career-assessment/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGenerator struct {
	calls   atomic.Int32
	err     error
	title   string
	gate    chan struct{}
	started chan struct{}
}

func (g *stubGenerator) GenerateMatches(ctx context.Context, id uuid.UUID) (model.CareerMatches, error) {
	if g.calls.Add(1) == 1 && g.started != nil {
		close(g.started)
	}
	if g.gate != nil {
		<-g.gate
	}
	if g.err != nil {
		return model.CareerMatches{}, g.err
	}
	title := g.title
	if title == "" {
		title = "X"
	}
	return model.CareerMatches{
		InterviewType: "lite",
		Matches: []json.RawMessage{
			json.RawMessage(`{"careerTitle":"` + title + `","fitScore":72,"confidence":"medium"}`),
			json.RawMessage(`{"careerTitle":"Y","fitScore":60,"confidence":"low"}`),
		},
		DataCompleteness: 100,
	}, nil
}

type memoryHotCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.MatchingResult
	gets    int
}

func (m *memoryHotCache) Get(_ context.Context, id uuid.UUID) (*model.MatchingResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	r, ok := m.entries[id]
	return r, ok, nil
}

func (m *memoryHotCache) Set(_ context.Context, r *model.MatchingResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[r.InterviewID]; ok && !r.AnalysisDate.After(cur.AnalysisDate) {
		return nil
	}
	m.entries[r.InterviewID] = r
	return nil
}

func (m *memoryHotCache) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[uuid.UUID]*model.MatchingResult{}
}

// interleavedHotCache runs beforeSet once, ahead of the next Set it receives.
type interleavedHotCache struct {
	*memoryHotCache
	armed     atomic.Bool
	beforeSet func()
}

func (c *interleavedHotCache) Set(ctx context.Context, r *model.MatchingResult) error {
	if c.armed.CompareAndSwap(true, false) {
		c.beforeSet()
	}
	return c.memoryHotCache.Set(ctx, r)
}

type resultFixture struct {
	uc      *ResultUsecase
	db      *gorm.DB
	results *repository.ResultRepository
	gen     *stubGenerator
}

func newResultFixture(t *testing.T, gen *stubGenerator, hot HotResultCache) resultFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	results := repository.NewResultRepository(db, log)
	uc := NewResultUsecase(results, repository.NewInterviewRepository(db, log), gen, hot, log)
	uc.now = testutil.NewClock().Now
	return resultFixture{uc: uc, db: db, results: results, gen: gen}
}

func (f resultFixture) completed(t *testing.T, userID string) *model.Interview {
	t.Helper()
	return testutil.SeedInterview(t, context.Background(), f.db, userID, model.InterviewTypeLite, model.StatusCompleted)
}

func TestGetResultsMissThenHit(t *testing.T) {
	f := newResultFixture(t, &stubGenerator{}, nil)
	ctx := context.Background()
	iv := f.completed(t, "u1")

	first, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, iv.ID, first.InterviewID)
	assert.Len(t, first.Matches, 2)

	second, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.gen.calls.Load())
	assert.True(t, first.AnalysisDate.Equal(second.AnalysisDate))
	assert.Equal(t, first.Matches, second.Matches)

	n, err := f.results.CountByInterview(ctx, iv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetResultsStoresSummary(t *testing.T) {
	f := newResultFixture(t, &stubGenerator{}, nil)
	ctx := context.Background()
	iv := f.completed(t, "u1")

	_, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)

	row, err := f.results.FindLatest(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", row.TopCareer)
	assert.Equal(t, 72, row.TopFitScore)
	assert.Equal(t, "medium", row.ConfidenceLevel)
	assert.Equal(t, "u1", row.UserID)
}

func TestGetResultsFailuresAreNotCached(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"not found", &service.GenerationError{Reason: service.ReasonInterviewNotFound}, apperr.KindNotFound},
		{"not completed", &service.GenerationError{Reason: service.ReasonInterviewNotCompleted}, apperr.KindPrecondition},
		{"upstream", &service.GenerationError{Reason: service.ReasonUpstream, Err: errors.New("503")}, apperr.KindGeneration},
		{"untyped", errors.New("boom"), apperr.KindGeneration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{err: tc.err}
			f := newResultFixture(t, gen, nil)
			iv := f.completed(t, "u1")

			_, err := f.uc.GetResults(ctx, iv.ID)
			requireKind(t, err, tc.kind)

			n, err := f.results.CountByInterview(ctx, iv.ID)
			require.NoError(t, err)
			assert.Zero(t, n)

			// The next call tries again instead of replaying the failure.
			gen.err = nil
			_, err = f.uc.GetResults(ctx, iv.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 2, gen.calls.Load())
		})
	}
}

func TestGetResultsCollapsesConcurrentMisses(t *testing.T) {
	gen := &stubGenerator{gate: make(chan struct{}), started: make(chan struct{})}
	f := newResultFixture(t, gen, nil)
	iv := f.completed(t, "u1")

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.GetResults(context.Background(), iv.ID)
			errs <- err
		}()
	}

	<-gen.started
	time.Sleep(50 * time.Millisecond)
	close(gen.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, gen.calls.Load())
	n, err := f.results.CountByInterview(context.Background(), iv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetResultsSurvivesCallerCancellation(t *testing.T) {
	gen := &stubGenerator{gate: make(chan struct{}), started: make(chan struct{})}
	f := newResultFixture(t, gen, nil)
	iv := f.completed(t, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.uc.GetResults(ctx, iv.ID)
	}()
	<-gen.started
	cancel()
	close(gen.gate)
	<-done

	n, err := f.results.CountByInterview(context.Background(), iv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegenerateResultsKeepsHistory(t *testing.T) {
	gen := &stubGenerator{}
	f := newResultFixture(t, gen, nil)
	ctx := context.Background()
	iv := f.completed(t, "u1")

	first, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)

	gen.title = "Z"
	regenerated, err := f.uc.RegenerateResults(ctx, iv.ID)
	require.NoError(t, err)
	assert.True(t, regenerated.AnalysisDate.After(first.AnalysisDate))

	latest, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	top, _, _ := model.CareerMatches{Matches: latest.Matches}.Summary()
	assert.Equal(t, "Z", top)

	n, err := f.results.CountByInterview(ctx, iv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestGetResultsUsesHotCache(t *testing.T) {
	hot := &memoryHotCache{entries: map[uuid.UUID]*model.MatchingResult{}}
	f := newResultFixture(t, &stubGenerator{}, hot)
	ctx := context.Background()
	iv := f.completed(t, "u1")

	_, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	require.Contains(t, hot.entries, iv.ID)

	// Drop the stored row: a hit must now come from the hot cache alone.
	require.NoError(t, f.db.Where("interview_id = ?", iv.ID).Delete(&model.Result{}).Error)
	cached, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, iv.ID, cached.InterviewID)
	assert.EqualValues(t, 1, f.gen.calls.Load())
}

func TestHotCacheBackfillDoesNotOverwriteRegenerated(t *testing.T) {
	gen := &stubGenerator{}
	hot := &interleavedHotCache{memoryHotCache: &memoryHotCache{entries: map[uuid.UUID]*model.MatchingResult{}}}
	f := newResultFixture(t, gen, hot)
	ctx := context.Background()
	iv := f.completed(t, "u1")

	_, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)

	// Force the next read through the database, and regenerate between its
	// database read and its hot cache back-fill.
	hot.clear()
	hot.beforeSet = func() {
		gen.title = "Z"
		_, err := f.uc.RegenerateResults(ctx, iv.ID)
		require.NoError(t, err)
	}
	hot.armed.Store(true)

	stale, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	top, _, _ := model.CareerMatches{Matches: stale.Matches}.Summary()
	assert.Equal(t, "X", top)

	latest, err := f.uc.GetResults(ctx, iv.ID)
	require.NoError(t, err)
	top, _, _ = model.CareerMatches{Matches: latest.Matches}.Summary()
	assert.Equal(t, "Z", top)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestGetResultsForExport(t *testing.T) {
	f := newResultFixture(t, &stubGenerator{}, nil)
	ctx := context.Background()
	iv := f.completed(t, "owner")

	_, err := f.uc.GetResultsForExport(ctx, ExportInput{InterviewID: iv.ID, RequesterID: "owner"})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.uc.GetResultsForExport(ctx, ExportInput{InterviewID: iv.ID, RequesterID: "intruder", Recipient: "a@b.c"})
	requireKind(t, err, apperr.KindForbidden)
	assert.Zero(t, f.gen.calls.Load())

	_, err = f.uc.GetResultsForExport(ctx, ExportInput{InterviewID: uuid.New(), RequesterID: "owner", Recipient: "a@b.c"})
	requireKind(t, err, apperr.KindNotFound)

	bundle, err := f.uc.GetResultsForExport(ctx, ExportInput{InterviewID: iv.ID, RequesterID: "owner", Recipient: " a@b.c "})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", bundle.Recipient)
	assert.Equal(t, "X", bundle.TopCareer)
	assert.Equal(t, 72, bundle.TopFitScore)
	assert.Equal(t, "medium", bundle.ConfidenceLevel)
}

func TestListResults(t *testing.T) {
	gen := &stubGenerator{}
	f := newResultFixture(t, gen, nil)
	ctx := context.Background()

	var ids []uuid.UUID
	for range 3 {
		iv := f.completed(t, "u1")
		_, err := f.uc.GetResults(ctx, iv.ID)
		require.NoError(t, err)
		ids = append(ids, iv.ID)
	}
	_, err := f.uc.RegenerateResults(ctx, ids[0])
	require.NoError(t, err)
	f.completed(t, "u2")

	page, pg, err := f.uc.ListResults(ctx, "u1", 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].InterviewID)
	assert.EqualValues(t, 3, pg.TotalItems)
	assert.EqualValues(t, 2, pg.TotalPages)
	assert.True(t, pg.HasMore)
	assert.Equal(t, 1, pg.From)
	assert.Equal(t, 2, pg.To)

	last, pg, err := f.uc.ListResults(ctx, "u1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
	assert.False(t, pg.HasMore)
	assert.Equal(t, 3, pg.From)

	_, _, err = f.uc.ListResults(ctx, " ", 1, 2)
	requireKind(t, err, apperr.KindValidation)
}

func TestPaginateEmpty(t *testing.T) {
	p := paginate(1, 20, 0, 0)
	assert.Zero(t, p.TotalPages)
	assert.False(t, p.HasMore)
	assert.Zero(t, p.From)
}
