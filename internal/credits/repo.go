package credits

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/common"
	"github.com/comicstudio/backend/internal/models"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Debit atomically decrements the balance and appends the ledger entry in one
// transaction. The conditional UPDATE (credits_balance >= amount) is what
// keeps the balance non-negative under concurrent debits: a debit that would
// overdraw affects zero rows and nothing is written.
func (r *Repo) Debit(ctx context.Context, userID uint64, amount int, reason string, metadata json.RawMessage) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credits_balance >= ?", userID, amount).
			UpdateColumn("credits_balance", gorm.Expr("credits_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrInsufficientCredits
		}
		b, err := r.readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return r.appendEntry(tx, userID, -amount, balance, reason, metadata)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit atomically increments the balance and appends the ledger entry.
// Used for purchases, signup bonuses and cancellation refunds.
func (r *Repo) Credit(ctx context.Context, userID uint64, amount int, reason string, metadata json.RawMessage) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("credits_balance", gorm.Expr("credits_balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		b, err := r.readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return r.appendEntry(tx, userID, amount, balance, reason, metadata)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *Repo) readBalance(tx *gorm.DB, userID uint64) (int, error) {
	var u models.User
	if err := tx.Select("credits_balance").First(&u, userID).Error; err != nil {
		return 0, err
	}
	return u.CreditsBalance, nil
}

func (r *Repo) appendEntry(tx *gorm.DB, userID uint64, delta, balanceAfter int, reason string, metadata json.RawMessage) error {
	txid, err := common.NewULID()
	if err != nil {
		return err
	}
	return tx.Create(&Transaction{
		TxID:         txid,
		UserID:       userID,
		Amount:       delta,
		BalanceAfter: balanceAfter,
		Reason:       reason,
		Metadata:     metadata,
	}).Error
}

func (r *Repo) Balance(ctx context.Context, userID uint64) (int, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Select("credits_balance").First(&u, userID).Error; err != nil {
		return 0, err
	}
	return u.CreditsBalance, nil
}

// ListHistory returns the most recent entries first.
func (r *Repo) ListHistory(ctx context.Context, userID uint64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var entries []Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
