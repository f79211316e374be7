package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// One observed transaction on a pot's address. Only State changes after insert.
type Transaction struct {
	Id    int64  `gorm:"primaryKey;autoIncrement"`
	PotId int64  `gorm:"not null;uniqueIndex:idx_transactions_pot_hash;index:idx_transactions_pot_state"`
	Hash  string `gorm:"type:varchar(100);not null;uniqueIndex:idx_transactions_pot_hash"`
	Lt    int64  `gorm:"not null"`

	Time   time.Time       `gorm:"not null"`
	Amount decimal.Decimal `gorm:"type:decimal(40,9);not null"`

	// Wallet of the person that made the transfer, non-bounceable form
	Sender string `gorm:"type:varchar(100);not null;default:''"`

	IsTokenTransfer bool              `gorm:"not null"`
	OpCode          TransactionOpcode `gorm:"not null"`
	State           TransactionState  `gorm:"not null;index:idx_transactions_pot_state"`

	UserId   *int64
	Referrer *string `gorm:"type:varchar(100)"`
}

func (Transaction) TableName() string {
	return "transactions"
}
