package genjob

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comicstudio/backend/internal/ai"
	"github.com/comicstudio/backend/internal/credits"
)

type fakeProvider struct {
	result *ai.GenerationResult
	err    error

	calls     int
	lastInput ai.GenerationInput
	onCall    func()
}

func (p *fakeProvider) Generate(_ context.Context, input ai.GenerationInput) (*ai.GenerationResult, error) {
	p.calls++
	p.lastInput = input
	if p.onCall != nil {
		p.onCall()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type fakePanelUpdater struct {
	panelID      string
	imageURL     string
	thumbnailURL string
	prompt       string
	calls        int
}

func (u *fakePanelUpdater) ApplyGeneratedImage(_ context.Context, panelID, imageURL, thumbnailURL, prompt string) error {
	u.calls++
	u.panelID = panelID
	u.imageURL = imageURL
	u.thumbnailURL = thumbnailURL
	u.prompt = prompt
	return nil
}

func newTestRunner(t *testing.T, repo *Repo, prov ai.Provider, panels PanelUpdater) *Runner {
	t.Helper()
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})
	return NewRunner(repo, reg, panels, "fake", "default")
}

func TestRun_SuccessPropagatesToPanel(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	prov := &fakeProvider{result: &ai.GenerationResult{
		ImageURL:     "/img/panel.jpg",
		ThumbnailURL: "/img/panel_thumb.jpg",
		Width:        1024,
		Height:       576,
		PromptUsed:   "alley chase, noir ink style",
	}}
	panels := &fakePanelUpdater{}
	runner := newTestRunner(t, repo, prov, panels)

	panelID := "c0ffee00-0000-0000-0000-000000000001"
	job := insertJob(t, repo, 1, StatusPending)
	require.NoError(t, db.Model(&Job{}).Where("id = ?", job.ID).Update("panel_id", panelID).Error)

	ctx := context.Background()
	require.NoError(t, runner.Run(ctx, job.ID))
	require.Equal(t, 1, prov.calls)
	require.Equal(t, "a quiet rooftop at dusk", prov.lastInput.SceneDescription)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, got.Status)
	require.Equal(t, 100, got.Progress)

	var result ai.GenerationResult
	require.NoError(t, json.Unmarshal(got.Result, &result))
	require.Equal(t, "/img/panel.jpg", result.ImageURL)
	require.Equal(t, 1024, result.Width)

	require.Equal(t, 1, panels.calls)
	require.Equal(t, panelID, panels.panelID)
	require.Equal(t, "/img/panel.jpg", panels.imageURL)
	require.Equal(t, "/img/panel_thumb.jpg", panels.thumbnailURL)
	require.Equal(t, "alley chase, noir ink style", panels.prompt)
}

func TestRun_ProviderErrorMarksFailedWithoutRefund(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	prov := &fakeProvider{err: errors.New("model overloaded")}
	runner := newTestRunner(t, repo, prov, nil)

	creditSvc := credits.NewService(credits.NewRepo(db))
	svc := NewService(repo, creditSvc, &recordingDispatcher{}, Pricing{BaseCost: 1, HighQualityCost: 2})
	uid := seedUser(t, db, 5)

	ctx := context.Background()
	job, err := svc.Create(ctx, uid, "", ai.GenerationInput{SceneDescription: "x"}, nil)
	require.NoError(t, err)

	require.NoError(t, runner.Run(ctx, job.ID))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(got.Error, &payload))
	require.Equal(t, "GENERATION_FAILED", payload.Code)
	require.Equal(t, "model overloaded", payload.Message)

	// failure keeps the charge: debit entry only, balance stays down
	balance, err := creditSvc.Balance(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 4, balance)
	require.Len(t, ledgerEntries(t, db, uid), 1)
}

func TestRun_SkipsNonPendingJob(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	prov := &fakeProvider{result: &ai.GenerationResult{ImageURL: "/img/x.jpg"}}
	runner := newTestRunner(t, repo, prov, nil)

	job := insertJob(t, repo, 1, StatusCancelled)

	ctx := context.Background()
	require.NoError(t, runner.Run(ctx, job.ID))
	require.Zero(t, prov.calls)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
}

// Cancellation lands while the provider is generating: the cancel CAS wins,
// the refund is issued there, and the runner discards its finished result.
func TestRun_CancelledMidFlightDiscardsResult(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	creditSvc := credits.NewService(credits.NewRepo(db))
	svc := NewService(repo, creditSvc, &recordingDispatcher{}, Pricing{BaseCost: 1, HighQualityCost: 2})
	uid := seedUser(t, db, 5)

	ctx := context.Background()
	job, err := svc.Create(ctx, uid, "", ai.GenerationInput{SceneDescription: "x"}, nil)
	require.NoError(t, err)

	prov := &fakeProvider{result: &ai.GenerationResult{ImageURL: "/img/late.jpg"}}
	prov.onCall = func() {
		_, cerr := svc.Cancel(ctx, job.ID)
		require.NoError(t, cerr)
	}
	runner := newTestRunner(t, repo, prov, nil)

	require.NoError(t, runner.Run(ctx, job.ID))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.Empty(t, got.Result)

	// exactly one refund, balance fully restored
	balance, err := creditSvc.Balance(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 5, balance)

	entries := ledgerEntries(t, db, uid)
	require.Len(t, entries, 2)
	require.Equal(t, credits.ReasonJobCancelled, entries[1].Reason)
}
