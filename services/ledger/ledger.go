// Package ledger is the durable credit movement record: an append-only
// transaction log per wallet account plus a cached balance that is adjusted
// atomically with every append.
package ledger

import (
	"errors"
	"lms/models"
	"lms/services/errs"
	"lms/utils"

	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	locks *utils.KeyMutex
}

func NewService(db *gorm.DB, locks *utils.KeyMutex) *Service {
	return &Service{db: db, locks: locks}
}

// Mismatch is one account whose cached balance drifted from its ledger sum.
// Any mismatch is an integrity violation, reported but never auto-patched.
type Mismatch struct {
	AccountID      uint  `json:"account_id"`
	CachedBalance  int64 `json:"cached_balance"`
	LedgerSum      int64 `json:"ledger_sum"`
	TransactionQty int64 `json:"transaction_qty"`
}

// EnsureAccount returns the wallet account for a user, creating it with a
// zero balance on first use.
func (s *Service) EnsureAccount(userID uint) (*models.WalletAccount, error) {
	return s.EnsureAccountIn(s.db, userID)
}

// EnsureAccountIn is the transaction-scoped variant of EnsureAccount. A lost
// race on the unique user index is resolved by re-reading once.
func (s *Service) EnsureAccountIn(tx *gorm.DB, userID uint) (*models.WalletAccount, error) {
	var account models.WalletAccount
	err := tx.Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = models.WalletAccount{UserID: userID, BalanceCredits: 0}
	if createErr := tx.Create(&account).Error; createErr != nil {
		// Concurrent creation for the same user; take the winner's row
		if readErr := tx.Where("user_id = ?", userID).First(&account).Error; readErr != nil {
			return nil, errs.Wrap(errs.ErrConflict, "wallet account for user %d: %v", userID, createErr)
		}
	}
	return &account, nil
}

// Award appends a ledger transaction and adjusts the cached balance in one
// unit of work. Idempotent per (referenceType, referenceID): a retried award
// for the same reference returns the existing row without double-crediting.
func (s *Service) Award(accountID uint, delta int64, referenceType models.ReferenceType, referenceID uint, description string) (*models.WalletTransaction, error) {
	unlock := s.locks.Lock(utils.AccountKey(accountID))
	defer unlock()

	var txn *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.AwardIn(tx, accountID, delta, referenceType, referenceID, description)
		return err
	})
	return txn, err
}

// AwardIn is the transaction-scoped body of Award, exposed so the quiz
// engine can credit a passed attempt inside the submission unit of work.
// The balance update is a single SQL increment; the row is never read,
// modified and written back.
func (s *Service) AwardIn(tx *gorm.DB, accountID uint, delta int64, referenceType models.ReferenceType, referenceID uint, description string) (*models.WalletTransaction, error) {
	// Dedupe on the triggering reference
	var existing models.WalletTransaction
	err := tx.Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var account models.WalletAccount
	if err := tx.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, "wallet account %d not found", accountID)
		}
		return nil, err
	}

	txn := models.WalletTransaction{
		AccountID:     accountID,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		CreditsDelta:  delta,
		Description:   description,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.WalletAccount{}).
		Where("id = ?", accountID).
		UpdateColumn("balance_credits", gorm.Expr("balance_credits + ?", delta)).Error; err != nil {
		return nil, err
	}

	return &txn, nil
}

// Balance returns the cached balance for an account
func (s *Service) Balance(accountID uint) (int64, error) {
	var account models.WalletAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.Wrap(errs.ErrNotFound, "wallet account %d not found", accountID)
		}
		return 0, err
	}
	return account.BalanceCredits, nil
}

// History returns every transaction of an account, newest first
func (s *Service) History(accountID uint) ([]models.WalletTransaction, error) {
	transactions, _, err := s.HistoryPage(accountID, 0, 0)
	return transactions, err
}

// HistoryPage returns one page of an account's transactions, newest first.
// A limit of 0 returns everything.
func (s *Service) HistoryPage(accountID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	var account models.WalletAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errs.Wrap(errs.ErrNotFound, "wallet account %d not found", accountID)
		}
		return nil, 0, err
	}

	query := s.db.Model(&models.WalletTransaction{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var transactions []models.WalletTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// Reconcile sweeps every account and compares the cached balance against
// the sum of its ledger deltas. The invariant is balance == sum at all
// times; any drift means a write bypassed the Award path.
func (s *Service) Reconcile() ([]Mismatch, error) {
	var accounts []models.WalletAccount
	if err := s.db.Find(&accounts).Error; err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, account := range accounts {
		var sum int64
		if err := s.db.Model(&models.WalletTransaction{}).
			Where("account_id = ?", account.ID).
			Select("COALESCE(SUM(credits_delta), 0)").
			Scan(&sum).Error; err != nil {
			return nil, err
		}

		if sum != account.BalanceCredits {
			var qty int64
			s.db.Model(&models.WalletTransaction{}).Where("account_id = ?", account.ID).Count(&qty)
			mismatches = append(mismatches, Mismatch{
				AccountID:      account.ID,
				CachedBalance:  account.BalanceCredits,
				LedgerSum:      sum,
				TransactionQty: qty,
			})
		}
	}
	return mismatches, nil
}
