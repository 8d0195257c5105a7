package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/repository/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterview(userID string) *model.Interview {
	now := time.Now().UTC()
	return &model.Interview{
		UserID:         userID,
		InterviewType:  model.InterviewTypeLite,
		Status:         model.StatusInProgress,
		CurrentModule:  "skills-talents",
		StartedAt:      now,
		LastActivityAt: now,
	}
}

func TestInterviewRepositoryCreateAndFind(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewInterviewRepository(db, testutil.Logger(t))
	ctx := context.Background()

	iv := newInterview("u1")
	require.NoError(t, repo.Create(ctx, iv))
	assert.NotEqual(t, uuid.Nil, iv.ID)

	got, err := repo.FindByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "skills-talents", got.CurrentModule)

	active, err := repo.FindActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, iv.ID, active.ID)

	owner, err := repo.OwnerOf(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.OwnerOf(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindActiveByUser(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInterviewRepositoryOneInProgressIndex(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewInterviewRepository(db, testutil.Logger(t))
	ctx := context.Background()

	first := newInterview("u1")
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newInterview("u1"))
	assert.ErrorIs(t, err, repository.ErrActiveInterviewExists)

	// Other users and finished interviews are unaffected.
	require.NoError(t, repo.Create(ctx, newInterview("u2")))
	first.Status = model.StatusAbandoned
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Create(ctx, newInterview("u1")))

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInterviewRepositoryTransactionLocksAndSaves(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewInterviewRepository(db, testutil.Logger(t))
	ctx := context.Background()

	iv := newInterview("u1")
	require.NoError(t, repo.Create(ctx, iv))

	err := repo.Transaction(ctx, func(tx *repository.InterviewRepository) error {
		locked, err := tx.FindByIDForUpdate(ctx, iv.ID)
		if err != nil {
			return err
		}
		locked.CurrentQuestion = 7
		return tx.Save(ctx, locked)
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.CurrentQuestion)
}
