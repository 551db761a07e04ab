package credits

import (
	"encoding/json"
	"time"
)

// Ledger entry reasons. Refunds carry their own reason so history stays
// distinguishable from purchases.
const (
	ReasonPurchase        = "purchase"
	ReasonSignupBonus     = "signup_bonus"
	ReasonPanelGeneration = "panel_generation"
	ReasonJobCancelled    = "job_cancelled"
)

// Transaction is an append-only ledger entry. Amount is the signed delta;
// BalanceAfter is the user's balance immediately after this entry was applied.
type Transaction struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	TxID         string          `gorm:"type:varchar(26);uniqueIndex;not null" json:"tx_id"`
	UserID       uint64          `gorm:"not null;index:idx_credit_tx_user_created,priority:1" json:"-"`
	Amount       int             `gorm:"not null" json:"amount"`
	BalanceAfter int             `gorm:"not null" json:"balance_after"`
	Reason       string          `gorm:"type:varchar(100);not null" json:"reason"`
	Metadata     json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time       `gorm:"index:idx_credit_tx_user_created,priority:2" json:"created_at"`
}

func (Transaction) TableName() string { return "credit_transactions" }
