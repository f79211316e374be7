package ton

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// In-memory ChainClient. Holds per account histories and answers like a node would.
type MemoryChain struct {
	mtx sync.Mutex

	seqno    int64
	syncTime time.Time
	pageSize int

	// Newest transaction first
	accounts      map[string][]RawTransaction
	jettonWallets map[string]string

	// Returned from every call when set
	err error

	inits         int
	pagesReturned int
}

func NewMemoryChain() *MemoryChain {
	return &MemoryChain{
		seqno:         1,
		syncTime:      time.Now().UTC().Truncate(time.Second),
		pageSize:      4,
		accounts:      make(map[string][]RawTransaction),
		jettonWallets: make(map[string]string),
	}
}

func (self *MemoryChain) WithPageSize(v int) *MemoryChain {
	self.pageSize = v
	return self
}

func (self *MemoryChain) SetSeqno(v int64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.seqno = v
}

func (self *MemoryChain) SetSyncTime(v time.Time) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.syncTime = v
}

func (self *MemoryChain) SetError(err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.err = err
}

func (self *MemoryChain) SetJettonWallet(master, owner, wallet string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.jettonWallets[master+"/"+owner] = wallet
}

// Appends a transaction as the newest one of the account. Lt has to grow.
func (self *MemoryChain) AddTransaction(account string, tx RawTransaction) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	history := self.accounts[account]
	if len(history) > 0 && history[0].Id.Lt >= tx.Id.Lt {
		panic(fmt.Sprintf("lt must grow: %d after %d", tx.Id.Lt, history[0].Id.Lt))
	}
	self.accounts[account] = append([]RawTransaction{tx}, history...)
}

func (self *MemoryChain) Inits() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.inits
}

func (self *MemoryChain) PagesReturned() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.pagesReturned
}

func (self *MemoryChain) InitIfNeeded(ctx context.Context) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return self.err
	}
	self.inits++
	return nil
}

func (self *MemoryChain) Deinit() {}

func (self *MemoryChain) Sync(ctx context.Context) (int64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return 0, self.err
	}
	return self.seqno, nil
}

func (self *MemoryChain) RawGetAccountState(ctx context.Context, account string) (state AccountState, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return state, self.err
	}

	state.SyncTime = self.syncTime
	if history := self.accounts[account]; len(history) > 0 {
		state.LastTransaction = history[0].Id
	}
	return
}

func (self *MemoryChain) RawGetTransactions(ctx context.Context, account string, from TransactionId) (page TransactionsPage, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return page, self.err
	}

	history := self.accounts[account]
	start := -1
	for i, tx := range history {
		if tx.Id == from {
			start = i
			break
		}
	}
	if start < 0 {
		return page, nil
	}

	end := min(start+self.pageSize, len(history))
	page.Transactions = append(page.Transactions, history[start:end]...)
	if end < len(history) {
		page.Previous = history[end].Id
	}
	self.pagesReturned++
	return
}

func (self *MemoryChain) GetJettonWallet(ctx context.Context, master, owner string) (string, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return "", self.err
	}

	wallet, ok := self.jettonWallets[master+"/"+owner]
	if !ok {
		return "", fmt.Errorf("%w: jetton wallet of %s", ErrNotFound, owner)
	}
	return wallet, nil
}
