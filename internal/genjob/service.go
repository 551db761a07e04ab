package genjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/comicstudio/backend/internal/ai"
	"github.com/comicstudio/backend/internal/common"
	"github.com/comicstudio/backend/internal/credits"
)

// Dispatcher hands a pending job off for execution and returns immediately.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// DispatchFunc adapts a plain function (e.g. a queue publish) to Dispatcher.
type DispatchFunc func(ctx context.Context, jobID string) error

func (f DispatchFunc) Dispatch(ctx context.Context, jobID string) error { return f(ctx, jobID) }

// Pricing maps generation input to a credit cost. The quality tier comes
// from caller-supplied input; there is no server-side validation against the
// provider's actual parameters (stated policy).
type Pricing struct {
	BaseCost        int
	HighQualityCost int
}

func (p Pricing) CostFor(input ai.GenerationInput) int {
	quality := ""
	if input.Style != nil {
		if q, ok := input.Style["quality"].(string); ok {
			quality = strings.ToLower(q)
		}
	}
	if quality == "high" {
		return p.HighQualityCost
	}
	return p.BaseCost
}

// Service orchestrates the ledger debit, job creation, dispatch, status
// lookup and cancellation. It keeps no state of its own.
type Service struct {
	repo       *Repo
	credits    *credits.Service
	dispatcher Dispatcher
	pricing    Pricing
}

func NewService(repo *Repo, credits *credits.Service, dispatcher Dispatcher, pricing Pricing) *Service {
	if pricing.BaseCost <= 0 {
		pricing.BaseCost = 1
	}
	if pricing.HighQualityCost <= 0 {
		pricing.HighQualityCost = 2
	}
	return &Service{repo: repo, credits: credits, dispatcher: dispatcher, pricing: pricing}
}

// Create debits the estimated cost, inserts the pending job and dispatches
// it. The returned snapshot is immediate; completion is observed by polling.
// A failed debit creates no job; a failed insert refunds the debit.
func (s *Service) Create(ctx context.Context, userID uint64, jobType string, input ai.GenerationInput, panelID *string) (*Job, error) {
	if jobType == "" {
		jobType = TypePanelGeneration
	}
	cost := s.pricing.CostFor(input)

	rawInput, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{"job_id": jobID})
	if _, err := s.credits.Debit(ctx, userID, cost, credits.ReasonPanelGeneration, meta); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                       jobID,
		UserID:                   userID,
		PanelID:                  panelID,
		JobType:                  jobType,
		Status:                   StatusPending,
		Input:                    rawInput,
		EstimatedCredits:         cost,
		EstimatedDurationSeconds: 10,
	}
	if err := s.repo.Insert(ctx, job); err != nil {
		if _, rerr := s.credits.Refund(ctx, userID, cost, credits.ReasonJobCancelled, meta); rerr != nil {
			slog.Error("refund after failed job insert failed", "job_id", jobID, "user_id", userID, "error", rerr)
		}
		return nil, err
	}

	if err := s.dispatcher.Dispatch(ctx, job.ID); err != nil {
		// The job stays pending and remains cancellable; a later worker or a
		// user cancel resolves it.
		slog.Error("job dispatch failed", "job_id", job.ID, "error", err)
	}

	slog.Info("generation job created", "job_id", job.ID, "user_id", userID, "type", jobType, "cost", cost)
	return job, nil
}

func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.Get(ctx, jobID)
}

// Cancel moves a non-terminal job to cancelled and refunds its estimated
// cost. The refund is issued only when this call's CAS wins against the
// worker's own terminal transition, so it happens at most once per job.
// Cancelling an already-terminal job is a no-op.
func (s *Service) Cancel(ctx context.Context, jobID string) (*Job, error) {
	for attempt := 0; attempt < 3; attempt++ {
		job, err := s.repo.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		err = s.repo.MarkCancelled(ctx, jobID, job.Status)
		if errors.Is(err, ErrStatusConflict) {
			// Status moved under us (pending->processing, or the worker
			// finished). Re-read and decide again.
			continue
		}
		if err != nil {
			return nil, err
		}

		meta, _ := json.Marshal(map[string]string{"job_id": jobID})
		if _, err := s.credits.Refund(ctx, job.UserID, job.EstimatedCredits, credits.ReasonJobCancelled, meta); err != nil {
			slog.Error("cancellation refund failed", "job_id", jobID, "user_id", job.UserID, "error", err)
			return nil, err
		}

		slog.Info("generation job cancelled", "job_id", jobID, "refund", job.EstimatedCredits)
		return s.repo.Get(ctx, jobID)
	}
	return nil, fmt.Errorf("cancel %s: too many status races", jobID)
}
