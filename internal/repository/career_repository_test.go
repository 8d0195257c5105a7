package repository_test

import (
	"context"
	"testing"

	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/repository/testutil"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorAt(hot int) pgvector.Vector {
	v := make([]float32, 3072)
	v[hot] = 1
	return pgvector.NewVector(v)
}

func TestCareerRepositoryUpsertByTitle(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewCareerRepository(db, testutil.Logger(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Career{Title: "Data Analyst", Cluster: "data", Description: "v1", Embedding: vectorAt(0)}))
	require.NoError(t, repo.Upsert(ctx, &model.Career{Title: "Data Analyst", Cluster: "data", Description: "v2", Embedding: vectorAt(1)}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.FindByTitle(ctx, "Data Analyst")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Description)
}

func TestCareerRepositorySearchCareers(t *testing.T) {
	db := testutil.PostgresDB(t)
	tx := db.Begin()
	t.Cleanup(func() { tx.Rollback() })
	repo := repository.NewCareerRepository(tx, testutil.Logger(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Career{Title: "zz-search-a", Embedding: vectorAt(0)}))
	require.NoError(t, repo.Upsert(ctx, &model.Career{Title: "zz-search-b", Embedding: vectorAt(5)}))

	got, err := repo.SearchCareers(ctx, vectorAt(5), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "zz-search-b", got[0].Title)
}
