package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls  int
	failAt int
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return nil, errors.New("quota exceeded")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func newCareerUsecase(t *testing.T, emb *stubEmbedder) (*CareerUsecase, *repository.CareerRepository) {
	t.Helper()
	repo := repository.NewCareerRepository(testutil.DB(t), testutil.Logger(t))
	uc := NewCareerUsecase(repo, emb, testutil.Logger(t))
	uc.careers = []model.Career{
		{Title: "Software Engineer", Cluster: "Technology", Description: "builds software"},
		{Title: "Registered Nurse", Cluster: "Healthcare", Description: "cares for patients"},
	}
	return uc, repo
}

func TestSeedCareerEmbeddingsUpsertsByTitle(t *testing.T) {
	ctx := context.Background()
	emb := &stubEmbedder{}
	uc, repo := newCareerUsecase(t, emb)

	n, err := uc.SeedCareerEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Seeding twice refreshes rows instead of duplicating them.
	_, err = uc.SeedCareerEmbeddings(ctx)
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 4, emb.calls)

	c, err := repo.FindByTitle(ctx, "Registered Nurse")
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", c.Cluster)
}

func TestSeedCareerEmbeddingsStopsOnFailure(t *testing.T) {
	uc, repo := newCareerUsecase(t, &stubEmbedder{failAt: 2})

	n, err := uc.SeedCareerEmbeddings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Registered Nurse")
	assert.Equal(t, 1, n)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSeedCareersHaveUniqueTitles(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range seedCareers {
		assert.False(t, seen[c.Title], c.Title)
		seen[c.Title] = true
		assert.NotEmpty(t, c.Description)
	}
}
