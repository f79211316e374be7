package ton

import (
	"context"
	"errors"
	"math/big"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrSyncRegression = errors.New("sync regression")
	ErrBadResponse    = errors.New("bad response")
)

// Position in an account's transaction history. Zero value means "no transaction".
type TransactionId struct {
	Lt   int64
	Hash string
}

func (self TransactionId) IsEmpty() bool {
	return self.Lt == 0 && self.Hash == ""
}

type AccountState struct {
	LastTransaction TransactionId
	SyncTime        time.Time
}

// Message that created the transaction
type InboundMessage struct {
	// Empty for external messages
	Source string

	// Attached coins, in nanotons
	Value *big.Int

	// Serialized body cell, empty when the message had no body
	Body []byte
}

type RawTransaction struct {
	Id    TransactionId
	Time  time.Time
	InMsg *InboundMessage
}

// Transactions ordered from newest to oldest. The first one is the one requested.
// Previous points to the transaction preceding the last one, empty when history ends.
type TransactionsPage struct {
	Transactions []RawTransaction
	Previous     TransactionId
}

// Wire access to the chain
type ChainClient interface {
	InitIfNeeded(ctx context.Context) error
	Deinit()

	// Current masterchain height
	Sync(ctx context.Context) (int64, error)

	RawGetAccountState(ctx context.Context, address string) (AccountState, error)
	RawGetTransactions(ctx context.Context, address string, from TransactionId) (TransactionsPage, error)

	// Address of the jetton wallet owned by owner, for the jetton defined by master
	GetJettonWallet(ctx context.Context, master, owner string) (string, error)
}
