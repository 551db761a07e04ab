package genjob

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/common"
	"github.com/comicstudio/backend/internal/credits"
	"github.com/comicstudio/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &credits.Transaction{}, &Job{}))
	return db
}

func insertJob(t *testing.T, repo *Repo, userID uint64, status Status) *Job {
	t.Helper()
	id, err := common.NewULID()
	require.NoError(t, err)
	job := &Job{
		ID:               id,
		UserID:           userID,
		JobType:          TypePanelGeneration,
		Status:           status,
		Input:            json.RawMessage(`{"scene_description":"a quiet rooftop at dusk"}`),
		EstimatedCredits: 1,
	}
	require.NoError(t, repo.Insert(context.Background(), job))
	return job
}

func TestMarkProcessing_ClaimsPendingOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	job := insertJob(t, repo, 1, StatusPending)

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, job.ID))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, got.Status)
	require.NotNil(t, got.StartedAt)

	// a second claim loses the CAS
	require.ErrorIs(t, repo.MarkProcessing(ctx, job.ID), ErrStatusConflict)
}

func TestMarkSucceeded_StoresResult(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	job := insertJob(t, repo, 1, StatusPending)

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, job.ID))
	require.NoError(t, repo.MarkSucceeded(ctx, job.ID, json.RawMessage(`{"image_url":"/img/1.jpg"}`)))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, got.Status)
	require.Equal(t, 100, got.Progress)
	require.NotNil(t, got.FinishedAt)
	require.JSONEq(t, `{"image_url":"/img/1.jpg"}`, string(got.Result))
}

func TestMarkFailed_StoresErrorPayload(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	job := insertJob(t, repo, 1, StatusPending)

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, job.ID))
	require.NoError(t, repo.MarkFailed(ctx, job.ID, "backend exploded"))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(got.Error, &payload))
	require.Equal(t, "GENERATION_FAILED", payload.Code)
	require.Equal(t, "backend exploded", payload.Message)
}

func TestMarkCancelled_LosesAgainstFinishedJob(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	job := insertJob(t, repo, 1, StatusPending)

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, job.ID))
	require.NoError(t, repo.MarkSucceeded(ctx, job.ID, json.RawMessage(`{}`)))

	// cancel observed "processing" but the worker finished first
	require.ErrorIs(t, repo.MarkCancelled(ctx, job.ID, StatusProcessing), ErrStatusConflict)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, got.Status)
}

func TestMarkSucceeded_LosesAgainstCancelledJob(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	job := insertJob(t, repo, 1, StatusPending)

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, job.ID))
	require.NoError(t, repo.MarkCancelled(ctx, job.ID, StatusProcessing))

	require.ErrorIs(t, repo.MarkSucceeded(ctx, job.ID, json.RawMessage(`{}`)), ErrStatusConflict)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.Empty(t, got.Result)
}
