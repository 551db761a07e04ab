package genjob

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/comicstudio/backend/internal/ai"
)

// PanelUpdater propagates a successful result into the referenced panel.
type PanelUpdater interface {
	ApplyGeneratedImage(ctx context.Context, panelID, imageURL, thumbnailURL, prompt string) error
}

// Runner executes one job end to end: claim via CAS, generate, commit
// exactly one terminal transition. It is shared by the in-process pool and
// the queue-consuming worker binary.
type Runner struct {
	repo     *Repo
	registry *ai.Registry
	panels   PanelUpdater

	Provider string
	Model    string
}

func NewRunner(repo *Repo, registry *ai.Registry, panels PanelUpdater, provider, model string) *Runner {
	return &Runner{repo: repo, registry: registry, panels: panels, Provider: provider, Model: model}
}

// Run processes jobID. The returned error reports infrastructure trouble
// only; a job that ends failed or was cancelled out from under the runner is
// handled and returns nil.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	// Claim the job. Losing this CAS means the job is no longer pending
	// (cancelled, or another worker claimed it); never touch it again.
	if err := r.repo.MarkProcessing(ctx, jobID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			slog.Info("job no longer pending, skipping", "job_id", jobID)
			return nil
		}
		return err
	}

	job, err := r.repo.Get(ctx, jobID)
	if err != nil {
		return err
	}

	var input ai.GenerationInput
	if len(job.Input) > 0 {
		if err := json.Unmarshal(job.Input, &input); err != nil {
			return r.fail(ctx, jobID, "invalid job input: "+err.Error())
		}
	}

	provider, err := r.registry.Get(ctx, r.Provider, r.Model)
	if err != nil {
		return r.fail(ctx, jobID, err.Error())
	}

	result, err := provider.Generate(ctx, input)
	if err != nil {
		return r.fail(ctx, jobID, err.Error())
	}

	rawResult, err := json.Marshal(result)
	if err != nil {
		return r.fail(ctx, jobID, "result encode: "+err.Error())
	}

	if err := r.repo.MarkSucceeded(ctx, jobID, rawResult); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Cancelled mid-flight. The cancel path already refunded;
			// discard the result, no ledger effect.
			slog.Info("job cancelled before completion, result discarded", "job_id", jobID)
			return nil
		}
		return err
	}

	// Best-effort write-back into the target panel; the job outcome is
	// already committed and does not depend on this.
	if job.PanelID != nil && r.panels != nil {
		if err := r.panels.ApplyGeneratedImage(ctx, *job.PanelID, result.ImageURL, result.ThumbnailURL, result.PromptUsed); err != nil {
			slog.Warn("panel propagation failed", "job_id", jobID, "panel_id", *job.PanelID, "error", err)
		}
	}

	slog.Info("generation job completed", "job_id", jobID)
	return nil
}

// fail commits the failed transition. No refund on generation failure: the
// charge is for the compute attempt, not guaranteed output.
func (r *Runner) fail(ctx context.Context, jobID, msg string) error {
	if err := r.repo.MarkFailed(ctx, jobID, msg); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			slog.Info("job cancelled before failure could be recorded", "job_id", jobID)
			return nil
		}
		return err
	}
	slog.Warn("generation job failed", "job_id", jobID, "error", msg)
	return nil
}
