package models

import "gorm.io/gorm"

// WalletAccount holds the cached credit balance for a user. The balance is
// only ever mutated together with a WalletTransaction append, in the same
// unit of work, so it always equals the sum of the account's deltas.
type WalletAccount struct {
	gorm.Model
	UserID         uint  `json:"userId" gorm:"uniqueIndex;not null"`
	BalanceCredits int64 `json:"balanceCredits" gorm:"not null;default:0"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}
