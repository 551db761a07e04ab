package genjob

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrStatusConflict reports a status update whose compare-and-set lost: the
// stored status no longer matched the expected one. Losing the race is a
// normal outcome, not a fault; callers treat it as "someone else got there
// first" and must not surface it.
var ErrStatusConflict = errors.New("job status conflict")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Insert(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateStatus transitions status and applies the patch only if the stored
// status still equals expected. This single conditional UPDATE is what makes
// the cancel/finish race safe: exactly one writer can move a job out of any
// given status, and the loser's write touches nothing.
func (r *Repo) UpdateStatus(ctx context.Context, id string, expected, next Status, patch map[string]any) error {
	updates := map[string]any{"status": next}
	for k, v := range patch {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *Repo) MarkProcessing(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, StatusPending, StatusProcessing, map[string]any{
		"started_at": time.Now(),
	})
}

func (r *Repo) MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error {
	return r.UpdateStatus(ctx, id, StatusProcessing, StatusSuccess, map[string]any{
		"result":      result,
		"progress":    100,
		"finished_at": time.Now(),
	})
}

func (r *Repo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.UpdateStatus(ctx, id, StatusProcessing, StatusFailed, map[string]any{
		"error":       marshalError(errMsg),
		"finished_at": time.Now(),
	})
}

// MarkCancelled CASes against whichever non-terminal status the caller
// observed. The winner of this CAS owns the refund.
func (r *Repo) MarkCancelled(ctx context.Context, id string, from Status) error {
	return r.UpdateStatus(ctx, id, from, StatusCancelled, map[string]any{
		"finished_at": time.Now(),
	})
}
