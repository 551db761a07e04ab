package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comicstudio/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// sqlite allows one writer; a single connection keeps concurrent test
	// writes from tripping SQLITE_BUSY
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &Transaction{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, balance int) uint64 {
	t.Helper()
	u := &models.User{
		Email:          fmt.Sprintf("%s@example.com", t.Name()),
		Username:       t.Name(),
		PasswordHash:   "x",
		CreditsBalance: balance,
		Tier:           models.TierFree,
	}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

func TestDebit_AppendsLedgerEntry(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 10)

	meta := json.RawMessage(`{"job_id":"01TEST"}`)
	balance, err := svc.Debit(context.Background(), uid, 3, ReasonPanelGeneration, meta)
	require.NoError(t, err)
	require.Equal(t, 7, balance)

	var entries []Transaction
	require.NoError(t, db.Where("user_id = ?", uid).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, -3, entries[0].Amount)
	require.Equal(t, 7, entries[0].BalanceAfter)
	require.Equal(t, ReasonPanelGeneration, entries[0].Reason)
	require.Len(t, entries[0].TxID, 26)
	require.JSONEq(t, `{"job_id":"01TEST"}`, string(entries[0].Metadata))
}

func TestDebit_InsufficientWritesNothing(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 2)

	_, err := svc.Debit(context.Background(), uid, 3, ReasonPanelGeneration, nil)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, 2, balance)

	var cnt int64
	require.NoError(t, db.Model(&Transaction{}).Where("user_id = ?", uid).Count(&cnt).Error)
	require.Zero(t, cnt)
}

func TestDebit_ExactBalanceGoesToZero(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 5)

	balance, err := svc.Debit(context.Background(), uid, 5, ReasonPanelGeneration, nil)
	require.NoError(t, err)
	require.Zero(t, balance)

	// now empty: any further debit must fail
	_, err = svc.Debit(context.Background(), uid, 1, ReasonPanelGeneration, nil)
	require.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestDebit_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))

	_, err := svc.Debit(context.Background(), 9999, 1, ReasonPanelGeneration, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDebit_RejectsNonPositiveAmount(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 10)

	_, err := svc.Debit(context.Background(), uid, 0, ReasonPanelGeneration, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Debit(context.Background(), uid, -2, ReasonPanelGeneration, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Refund(context.Background(), uid, 0, ReasonJobCancelled, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRefund_RestoresBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 10)

	_, err := svc.Debit(context.Background(), uid, 4, ReasonPanelGeneration, nil)
	require.NoError(t, err)

	balance, err := svc.Refund(context.Background(), uid, 4, ReasonJobCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, 10, balance)

	entries, err := svc.History(context.Background(), uid, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// newest first
	require.Equal(t, ReasonJobCancelled, entries[0].Reason)
	require.Equal(t, 4, entries[0].Amount)
	require.Equal(t, 10, entries[0].BalanceAfter)
}

// Replaying every ledger entry from zero must land exactly on the stored
// balance, and each entry's balance_after must equal the running sum.
func TestLedgerReplayMatchesBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 0)

	ctx := context.Background()
	_, err := svc.Purchase(ctx, uid, 20)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, uid, 3, ReasonPanelGeneration, nil)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, uid, 7, ReasonPanelGeneration, nil)
	require.NoError(t, err)
	_, err = svc.Refund(ctx, uid, 7, ReasonJobCancelled, nil)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, uid, 1, ReasonPanelGeneration, nil)
	require.NoError(t, err)

	var entries []Transaction
	require.NoError(t, db.Where("user_id = ?", uid).Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 5)

	running := 0
	for _, e := range entries {
		running += e.Amount
		require.Equal(t, e.BalanceAfter, running, "entry %s", e.TxID)
	}

	balance, err := svc.Balance(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, running, balance)
	require.Equal(t, 16, balance)
}

func TestConcurrentDebits_NeverOverdraw(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 10)

	const attempts = 25
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, _ = svc.Debit(context.Background(), uid, 1, ReasonPanelGeneration, nil)
		}()
	}
	wg.Wait()

	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	require.Zero(t, balance)

	var cnt int64
	require.NoError(t, db.Model(&Transaction{}).Where("user_id = ?", uid).Count(&cnt).Error)
	require.EqualValues(t, 10, cnt)
}

func TestGrantSignupBonus(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 0)

	require.NoError(t, svc.GrantSignupBonus(context.Background(), uid, 10))

	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, 10, balance)

	entries, err := svc.History(context.Background(), uid, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ReasonSignupBonus, entries[0].Reason)

	// disabled bonus is a no-op, not an error
	require.NoError(t, svc.GrantSignupBonus(context.Background(), uid, 0))
}

func TestListHistory_OrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	uid := createUser(t, db, 0)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Purchase(ctx, uid, i+1)
		require.NoError(t, err)
	}

	entries, err := svc.History(ctx, uid, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// newest first: last purchase was 5 credits
	require.Equal(t, 5, entries[0].Amount)
	require.Equal(t, 4, entries[1].Amount)

	// out-of-range limits fall back to the default of 10
	entries, err = svc.History(ctx, uid, -1)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}
