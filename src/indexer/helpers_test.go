package indexer

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/model"
	monitor_indexer "github.com/magicpot/indexer/src/utils/monitoring/indexer"
	"github.com/magicpot/indexer/src/utils/payload"
	"github.com/magicpot/indexer/src/utils/ton"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xssnick/tonutils-go/address"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Remembers every signal sent
type recordingSignaler struct {
	mtx     sync.Mutex
	targets []string
	err     error
}

func (self *recordingSignaler) Signal(ctx context.Context, target string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return self.err
	}
	self.targets = append(self.targets, target)
	return nil
}

func (self *recordingSignaler) Targets() []string {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return append([]string{}, self.targets...)
}

// Chain that runs a callback before answering
type hookedChain struct {
	*ton.MemoryChain
	beforeTransactions func()
	beforeAccountState func(account string)
}

func (self *hookedChain) RawGetTransactions(ctx context.Context, account string, from ton.TransactionId) (ton.TransactionsPage, error) {
	if self.beforeTransactions != nil {
		self.beforeTransactions()
	}
	return self.MemoryChain.RawGetTransactions(ctx, account, from)
}

func (self *hookedChain) RawGetAccountState(ctx context.Context, account string) (ton.AccountState, error) {
	if self.beforeAccountState != nil {
		self.beforeAccountState(account)
	}
	return self.MemoryChain.RawGetAccountState(ctx, account)
}

func newTestDB(s *suite.Suite) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.Nil(s.T(), err)

	// Every connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.Nil(s.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.Nil(s.T(), db.AutoMigrate(model.Tables()...))
	s.T().Cleanup(func() { sqlDB.Close() })
	return db
}

func testAddress(b byte) *address.Address {
	return address.NewAddress(0, 0, bytes.Repeat([]byte{b}, 32))
}

// Test world: one database, one chain and an updater working on both
type indexerFixture struct {
	suite.Suite

	config   *config.Config
	db       *gorm.DB
	chain    *ton.MemoryChain
	signaler *recordingSignaler
	monitor  *monitor_indexer.Monitor
	store    *Store
	updater  *PotUpdater

	t0  time.Time
	now time.Time
	lt  int64

	master string
	owner  *address.Address
	player *address.Address
}

func (s *indexerFixture) SetupTest() {
	s.config = config.Default()
	s.config.Indexer.DefaultInterval = 5 * time.Second
	s.config.Indexer.MaxBatch = 100

	s.db = newTestDB(&s.Suite)
	s.chain = ton.NewMemoryChain().WithPageSize(2)
	s.signaler = &recordingSignaler{}
	s.monitor = monitor_indexer.NewMonitor()
	s.store = NewStore(s.config).WithDB(s.db)

	s.t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = s.t0
	s.lt = 1000

	s.master = ton.ToContract(testAddress(0x10), false)
	s.owner = testAddress(0x33)
	s.player = testAddress(0x55)

	s.updater = NewPotUpdater(s.config).
		WithStore(s.store).
		WithReader(ton.NewBlockchainReader(s.chain)).
		WithSignaler(s.signaler).
		WithMonitor(s.monitor)
	s.updater.now = func() time.Time { return s.now }
}

func (s *indexerFixture) potAddress(id int64) string {
	return ton.ToUser(testAddress(byte(0x80+id)), false)
}

func (s *indexerFixture) walletAddress(id int64) string {
	return ton.ToContract(testAddress(byte(0xA0+id)), false)
}

// Pot due right away, its jetton wallet known to the chain
func (s *indexerFixture) createPot(id int64) *model.Pot {
	s.chain.SetJettonWallet(s.master, s.potAddress(id), s.walletAddress(id))

	pot := &model.Pot{
		Id:               id,
		Name:             fmt.Sprintf("pot %d", id),
		Address:          s.potAddress(id),
		OwnerUserId:      1001,
		OwnerUserAddress: ton.ToUser(s.owner, false),
		JettonMaster:     s.master,
		InitialSize:      decimal.NewFromInt(100),
		TotalSize:        decimal.Zero,
		TxSizeNext:       decimal.NewFromInt(10),
		TxSizeIncrease:   decimal.NewFromInt(25),
		Countdown:        model.Seconds(5 * time.Minute),
		Created:          s.t0,
		SyncUtime:        s.t0,
		LastTouch:        s.t0,
		NextUpdate:       s.t0,
	}
	require.Nil(s.T(), s.db.Create(pot).Error)
	return pot
}

// Appends a transaction to the chain. Each call gets a higher lt.
func (s *indexerFixture) addRaw(potId int64, at time.Time, inMsg *ton.InboundMessage) ton.TransactionId {
	s.lt += 10
	id := ton.TransactionId{Lt: s.lt, Hash: fmt.Sprintf("hash-%d", s.lt)}
	s.chain.AddTransaction(s.potAddress(potId), ton.RawTransaction{
		Id:    id,
		Time:  at,
		InMsg: inMsg,
	})
	return id
}

// Jetton transfer with an encoded payload, amount in whole jettons of 9 decimals
func (s *indexerFixture) transfer(potId int64, at time.Time, from *address.Address, jettons int64, opcode int32, userId int64) ton.TransactionId {
	c, err := payload.Encode(opcode, userId, nil)
	require.Nil(s.T(), err)

	raw := new(big.Int).Mul(big.NewInt(jettons), big.NewInt(1_000_000_000))
	body, err := ton.BuildTransferNotification(uint64(s.lt), raw, from, c)
	require.Nil(s.T(), err)

	return s.addRaw(potId, at, &ton.InboundMessage{
		Source: s.walletAddress(potId),
		Value:  big.NewInt(50_000_000),
		Body:   body,
	})
}

func (s *indexerFixture) charge(potId int64, at time.Time, jettons int64) ton.TransactionId {
	return s.transfer(potId, at, s.owner, jettons, payload.OpCharge, 1001)
}

func (s *indexerFixture) bet(potId int64, at time.Time, jettons int64) ton.TransactionId {
	return s.transfer(potId, at, s.player, jettons, payload.OpBet, 7)
}

func (s *indexerFixture) reload(id int64) *model.Pot {
	pot := new(model.Pot)
	require.Nil(s.T(), s.db.Take(pot, id).Error)
	return pot
}

func (s *indexerFixture) transactions(potId int64) (out []model.Transaction) {
	require.Nil(s.T(), s.db.Where("pot_id = ?", potId).Order("lt ASC").Find(&out).Error)
	return
}

func (s *indexerFixture) transaction(potId int64, id ton.TransactionId) *model.Transaction {
	tx := new(model.Transaction)
	require.Nil(s.T(), s.db.Where("pot_id = ? AND hash = ?", potId, id.Hash).Take(tx).Error)
	return tx
}

func (s *indexerFixture) messages(potId int64) (out []model.ScheduledMessage) {
	require.Nil(s.T(), s.db.Where("pot_id = ?", potId).Order("id ASC").Find(&out).Error)
	return
}

func (s *indexerFixture) requireDecimal(expected string, actual decimal.Decimal) {
	require.True(s.T(), actual.Equal(decimal.RequireFromString(expected)), "expected %s, got %s", expected, actual)
}
