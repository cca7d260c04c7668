package models

import "gorm.io/gorm"

// ReferenceType identifies what triggered a wallet transaction
type ReferenceType string

const (
	ReferenceTypeQuizAttempt ReferenceType = "QUIZ_ATTEMPT"
	ReferenceTypeReward      ReferenceType = "REWARD"
	ReferenceTypeRedemption  ReferenceType = "REDEMPTION"
)

// WalletTransaction is one immutable ledger entry. Rows are append-only;
// a (reference_type, reference_id) pair is credited at most once.
type WalletTransaction struct {
	gorm.Model
	AccountID     uint          `json:"accountId" gorm:"not null;index"`
	ReferenceType ReferenceType `json:"referenceType" gorm:"type:varchar(50);not null;index:idx_wallet_txn_reference"`
	ReferenceID   uint          `json:"referenceId" gorm:"not null;index:idx_wallet_txn_reference"`
	CreditsDelta  int64         `json:"creditsDelta" gorm:"not null"` // positive for credit, negative for debit
	Description   string        `json:"description" gorm:"type:text"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
