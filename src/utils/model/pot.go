package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// One game round. Created externally, then mutated only by the indexer.
type Pot struct {
	Id   int64  `gorm:"primaryKey;autoIncrement:false"`
	Key  string `gorm:"type:varchar(20);uniqueIndex;not null"`
	Name string `gorm:"not null"`

	// Receiving address, non-bounceable form
	Address string `gorm:"type:varchar(100);not null"`

	OwnerUserId int64 `gorm:"index;not null"`

	// Owner's wallet, non-bounceable form
	OwnerUserAddress string `gorm:"type:varchar(100);not null"`

	// Jetton master contract, bounceable form
	JettonMaster string `gorm:"type:varchar(100);not null"`

	// Pot's own jetton wallet, empty until resolved
	JettonWallet string `gorm:"type:varchar(100);not null;default:''"`

	InitialSize decimal.Decimal `gorm:"type:decimal(40,9);not null"`
	TotalSize   decimal.Decimal `gorm:"type:decimal(40,9);not null"`
	TxSizeNext  decimal.Decimal `gorm:"type:decimal(40,9);not null"`

	// Percent
	TxSizeIncrease decimal.Decimal `gorm:"type:decimal(10,4);not null"`

	Countdown Seconds `gorm:"type:bigint;not null"`

	Created time.Time `gorm:"not null"`
	Charged *time.Time
	FirstTx *time.Time
	LastTx  *time.Time
	Stolen  *time.Time
	Paid    *time.Time

	// Ledger cursor: lt of the last ingested transaction and node time it was observed at
	SyncLt    int64     `gorm:"not null;default:0"`
	SyncUtime time.Time `gorm:"not null"`

	LastTouch  time.Time `gorm:"not null"`
	NextUpdate time.Time `gorm:"index;not null"`

	TxCount int `gorm:"not null;default:0"`
}

func (Pot) TableName() string {
	return "pots"
}

func PotKey(id int64) string {
	return strconv.FormatInt(id, 36)
}

func (self *Pot) BeforeCreate(tx *gorm.DB) error {
	if self.Key == "" {
		self.Key = PotKey(self.Id)
	}
	return nil
}

// Lifecycle state derived from the timestamps
func (self *Pot) State() PotState {
	switch {
	case self.Paid != nil:
		return PotStatePaid
	case self.Stolen != nil:
		return PotStateStolen
	case self.FirstTx != nil:
		return PotStateTicking
	case self.Charged != nil:
		return PotStateCharged
	default:
		return PotStateCreated
	}
}

// Moment the countdown lapses, nil before the first accepted bet
func (self *Pot) CountdownEnd() *time.Time {
	if self.LastTx == nil {
		return nil
	}
	end := self.LastTx.Add(self.Countdown.Duration())
	return &end
}

// True if the countdown lapsed strictly before t
func (self *Pot) ExpiredBefore(t time.Time) bool {
	end := self.CountdownEnd()
	return end != nil && end.Before(t)
}

func (self *Pot) SetCharged(t time.Time) bool {
	if self.Charged != nil {
		return false
	}
	self.Charged = &t
	return true
}

func (self *Pot) SetFirstTx(t time.Time) bool {
	if self.FirstTx != nil {
		return false
	}
	self.FirstTx = &t
	return true
}

// Ends the betting phase at the moment the countdown lapsed. Never moves an already set value.
func (self *Pot) SetStolen() bool {
	if self.Stolen != nil {
		return false
	}
	end := self.CountdownEnd()
	if end == nil {
		return false
	}
	self.Stolen = end
	return true
}

// Nothing is accumulated once the pot is stolen
func (self *Pot) Accumulate(amount decimal.Decimal) bool {
	if self.Stolen != nil || !amount.IsPositive() {
		return false
	}
	self.TotalSize = self.TotalSize.Add(amount)
	return true
}

// TxSizeIncrease percent of the required bet, rounded to 2 decimals
func (self *Pot) NextBetGrowth() decimal.Decimal {
	if !self.TxSizeIncrease.IsPositive() {
		return decimal.Zero
	}
	return self.TxSizeNext.Mul(self.TxSizeIncrease).Div(decimal.NewFromInt(100)).RoundBank(2)
}

func (self *Pot) GrowTxSizeNext() {
	self.TxSizeNext = self.TxSizeNext.Add(self.NextBetGrowth())
}

// Moves the cursor forward. Lower positions are ignored.
func (self *Pot) AdvanceCursor(lt int64, utime time.Time) {
	if lt >= self.SyncLt {
		self.SyncLt = lt
	}
	self.SyncUtime = utime
}

func (self *Pot) Touch(now time.Time) {
	self.LastTouch = now
}

// Polls recently active pots often and idle ones rarely
func (self *Pot) UpdateNextUpdate(now time.Time) {
	self.NextUpdate = now.Add(RescheduleDelay(now.Sub(self.LastTouch)))
}

func RescheduleDelay(sinceTouch time.Duration) time.Duration {
	switch {
	case sinceTouch < time.Minute:
		return 15 * time.Second
	case sinceTouch < 3*time.Minute:
		return 7 * time.Second
	case sinceTouch < 10*time.Minute:
		return 19 * time.Second
	case sinceTouch < time.Hour:
		return 42 * time.Second
	default:
		return 42 * time.Minute
	}
}
