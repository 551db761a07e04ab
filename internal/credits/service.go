package credits

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Service is the only mutation path for balances and ledger history.
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Debit(ctx context.Context, userID uint64, amount int, reason string, metadata json.RawMessage) (int, error) {
	balance, err := s.repo.Debit(ctx, userID, amount, reason, metadata)
	if err != nil {
		return 0, err
	}
	slog.Info("credits debited", "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
	return balance, nil
}

func (s *Service) Refund(ctx context.Context, userID uint64, amount int, reason string, metadata json.RawMessage) (int, error) {
	balance, err := s.repo.Credit(ctx, userID, amount, reason, metadata)
	if err != nil {
		return 0, err
	}
	slog.Info("credits refunded", "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
	return balance, nil
}

// Purchase adds credits to the account. Payment gateway integration is out of
// scope; this is a mock purchase.
func (s *Service) Purchase(ctx context.Context, userID uint64, amount int) (int, error) {
	balance, err := s.repo.Credit(ctx, userID, amount, ReasonPurchase, nil)
	if err != nil {
		return 0, err
	}
	slog.Info("credits purchased", "user_id", userID, "amount", amount, "balance", balance)
	return balance, nil
}

// GrantSignupBonus seeds a fresh account with starter credits.
func (s *Service) GrantSignupBonus(ctx context.Context, userID uint64, amount int) error {
	if amount <= 0 {
		return nil
	}
	_, err := s.repo.Credit(ctx, userID, amount, ReasonSignupBonus, nil)
	return err
}

func (s *Service) Balance(ctx context.Context, userID uint64) (int, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID uint64, limit int) ([]Transaction, error) {
	return s.repo.ListHistory(ctx, userID, limit)
}
