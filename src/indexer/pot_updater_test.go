package indexer

import (
	"errors"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/magicpot/indexer/src/utils/model"
	"github.com/magicpot/indexer/src/utils/notify"
	"github.com/magicpot/indexer/src/utils/payload"
	"github.com/magicpot/indexer/src/utils/task"
	"github.com/magicpot/indexer/src/utils/ton"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestPotUpdaterTestSuite(t *testing.T) {
	suite.Run(t, new(PotUpdaterTestSuite))
}

type PotUpdaterTestSuite struct {
	indexerFixture
}

func (s *PotUpdaterTestSuite) TestResolvesJettonWallet() {
	s.createPot(1)

	wait := s.updater.pass()
	require.Equal(s.T(), 5*time.Second, wait)

	pot := s.reload(1)
	require.Equal(s.T(), s.walletAddress(1), pot.JettonWallet)
	require.True(s.T(), pot.NextUpdate.Equal(s.t0.Add(15*time.Second)))

	// Resolving the wallet counts as a change
	require.Equal(s.T(), []string{notify.TargetCachedData, notify.TargetScheduledMessageSender}, s.signaler.Targets())
}

func (s *PotUpdaterTestSuite) TestFullRound() {
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.bet(1, s.t0.Add(time.Minute), 10)

	s.now = s.t0.Add(time.Minute + time.Second)
	s.updater.pass()

	pot := s.reload(1)
	require.Equal(s.T(), model.PotStateTicking, pot.State())
	require.True(s.T(), pot.Charged.Equal(s.t0))
	require.True(s.T(), pot.FirstTx.Equal(s.t0.Add(time.Minute)))
	require.True(s.T(), pot.LastTx.Equal(s.t0.Add(time.Minute)))
	require.Equal(s.T(), 1, pot.TxCount)
	s.requireDecimal("110", pot.TotalSize)
	s.requireDecimal("12.5", pot.TxSizeNext)

	txs := s.transactions(1)
	require.Len(s.T(), txs, 2)
	require.Equal(s.T(), model.TransactionStateChargeOk, txs[0].State)
	require.Equal(s.T(), model.TransactionOpcodeCharge, txs[0].OpCode)
	require.Equal(s.T(), model.TransactionStateBetOk, txs[1].State)
	require.Equal(s.T(), int64(7), *txs[1].UserId)
	require.Equal(s.T(), ton.ToUser(s.player, false), txs[1].Sender)
	require.True(s.T(), txs[1].IsTokenTransfer)

	messages := s.messages(1)
	require.Len(s.T(), messages, 3)
	require.Equal(s.T(), model.ScheduledMessageTypeReferralRichMessage, messages[0].Type)
	require.Nil(s.T(), messages[0].UserId)
	require.Equal(s.T(), model.ScheduledMessageTypePotTransactionAccepted, messages[1].Type)
	require.Equal(s.T(), int64(7), *messages[1].UserId)
	require.Equal(s.T(), model.ScheduledMessageTypePotStarted, messages[2].Type)
	require.Equal(s.T(), int64(1001), *messages[2].UserId)

	// Late bet: the pot is stolen at the moment the countdown lapsed
	late := s.bet(1, s.t0.Add(10*time.Minute), 20)
	s.now = s.t0.Add(10*time.Minute + time.Second)
	s.updater.pass()

	pot = s.reload(1)
	require.Equal(s.T(), model.PotStateStolen, pot.State())
	require.True(s.T(), pot.Stolen.Equal(s.t0.Add(6*time.Minute)))
	s.requireDecimal("110", pot.TotalSize)
	require.Equal(s.T(), model.TransactionStateBetAfterStolen, s.transaction(1, late).State)
	require.Len(s.T(), s.messages(1), 3)
}

func (s *PotUpdaterTestSuite) TestCountdownLapsesWithoutBets() {
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.bet(1, s.t0.Add(time.Minute), 10)
	s.updater.pass()
	require.Nil(s.T(), s.reload(1).Stolen)

	s.now = s.t0.Add(time.Hour)
	s.updater.pass()

	pot := s.reload(1)
	require.True(s.T(), pot.Stolen.Equal(s.t0.Add(6*time.Minute)))

	// Never moved again
	s.now = s.t0.Add(2 * time.Hour)
	s.updater.pass()
	require.True(s.T(), s.reload(1).Stolen.Equal(s.t0.Add(6*time.Minute)))
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.State.PotsStolen.Load())
}

func (s *PotUpdaterTestSuite) TestBetsBeforeChargeAreCounted() {
	s.createPot(1)
	early := s.bet(1, s.t0, 1000)
	charge := s.charge(1, s.t0.Add(time.Second), 100)
	s.updater.pass()

	pot := s.reload(1)
	require.Equal(s.T(), model.TransactionStateBetBeforeCharge, s.transaction(1, early).State)
	require.Equal(s.T(), model.TransactionStateChargeOk, s.transaction(1, charge).State)
	require.Equal(s.T(), model.PotStateCharged, pot.State())
	require.Nil(s.T(), pot.FirstTx)
	s.requireDecimal("1100", pot.TotalSize)
}

func (s *PotUpdaterTestSuite) TestChargeFromStranger() {
	s.createPot(1)
	id := s.transfer(1, s.t0, s.player, 100, payload.OpCharge, 7)
	s.updater.pass()

	require.Equal(s.T(), model.TransactionStateChargeNotFromOwner, s.transaction(1, id).State)
	require.Nil(s.T(), s.reload(1).Charged)
}

func (s *PotUpdaterTestSuite) TestOrderedByTime() {
	s.createPot(1)
	s.charge(1, s.t0, 100)

	// Lower lt but later time
	tooSmall := s.bet(1, s.t0.Add(2*time.Minute), 11)
	ok := s.bet(1, s.t0.Add(time.Minute), 10)
	s.updater.pass()

	// The 10 bet goes first and raises the requirement to 12.5
	require.Equal(s.T(), model.TransactionStateBetOk, s.transaction(1, ok).State)
	require.Equal(s.T(), model.TransactionStateBetTooSmall, s.transaction(1, tooSmall).State)
	s.requireDecimal("121", s.reload(1).TotalSize)
}

func (s *PotUpdaterTestSuite) TestInvalidTransactions() {
	pot := s.createPot(1)
	pot.JettonWallet = s.walletAddress(1)
	require.Nil(s.T(), s.db.Save(pot).Error)

	noInMsg := s.addRaw(1, s.t0, nil)
	noSender := s.addRaw(1, s.t0, &ton.InboundMessage{Value: big.NewInt(1)})
	plain := s.addRaw(1, s.t0, &ton.InboundMessage{Source: ton.ToUser(s.player, false), Value: big.NewInt(1)})

	body, err := ton.BuildTransferNotification(1, big.NewInt(5_000_000_000), s.player, nil)
	require.Nil(s.T(), err)
	noPayload := s.addRaw(1, s.t0, &ton.InboundMessage{Source: s.walletAddress(1), Body: body})
	otherJetton := s.addRaw(1, s.t0, &ton.InboundMessage{Source: s.walletAddress(9), Body: body})

	s.updater.pass()

	require.Equal(s.T(), model.TransactionStateInvalidNoInMsg, s.transaction(1, noInMsg).State)
	require.Equal(s.T(), model.TransactionStateInvalidNoSender, s.transaction(1, noSender).State)
	require.Equal(s.T(), model.TransactionStateUnknownIgnored, s.transaction(1, plain).State)
	require.Equal(s.T(), model.TransactionStateInvalidBadPayload, s.transaction(1, noPayload).State)
	require.Equal(s.T(), model.TransactionStateInvalidUnknownJetton, s.transaction(1, otherJetton).State)

	pot = s.reload(1)
	s.requireDecimal("0", pot.TotalSize)
	require.Equal(s.T(), otherJetton.Lt, pot.SyncLt)

	// Nothing relevant happened
	require.Empty(s.T(), s.signaler.Targets())
	require.Empty(s.T(), s.messages(1))
	require.Equal(s.T(), uint64(5), s.monitor.GetReport().Indexer.State.TransactionsIngested.Load())
}

func (s *PotUpdaterTestSuite) TestJettonDecimals() {
	s.createPot(1)
	require.Nil(s.T(), s.db.Create(&model.Jetton{Address: s.master, Name: "Test", Symbol: "TST", Decimals: 6}).Error)

	id := s.bet(1, s.t0, 10)
	s.updater.pass()

	// 10 * 10^9 base units with 6 decimals
	s.requireDecimal("10000", s.transaction(1, id).Amount)
}

func (s *PotUpdaterTestSuite) TestIdempotentIngest() {
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.bet(1, s.t0.Add(time.Minute), 10)
	s.updater.pass()

	// Cursor lost, the same history is read again
	require.Nil(s.T(), s.db.Model(&model.Pot{}).Where("id = ?", 1).Updates(map[string]any{"sync_lt": 0, "next_update": s.t0}).Error)
	s.updater.pass()

	require.Len(s.T(), s.transactions(1), 2)
	require.Len(s.T(), s.messages(1), 3)
	s.requireDecimal("110", s.reload(1).TotalSize)
}

func (s *PotUpdaterTestSuite) TestCursorNeverMovesBack() {
	pot := s.createPot(1)
	pot.SyncLt = 1_000_000
	require.Nil(s.T(), s.db.Save(pot).Error)

	s.bet(1, s.t0, 10)
	s.updater.pass()

	require.Equal(s.T(), int64(1_000_000), s.reload(1).SyncLt)
	require.Empty(s.T(), s.transactions(1))
}

func (s *PotUpdaterTestSuite) TestIncrementalSync() {
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.updater.pass()
	require.Len(s.T(), s.transactions(1), 1)

	s.bet(1, s.t0.Add(time.Minute), 10)
	s.bet(1, s.t0.Add(2*time.Minute), 13)
	s.bet(1, s.t0.Add(3*time.Minute), 15)

	s.now = s.t0.Add(time.Hour)
	s.updater.pass()

	pot := s.reload(1)
	require.Len(s.T(), s.transactions(1), 4)
	require.Equal(s.T(), 2, pot.TxCount)
	require.Equal(s.T(), s.lt, pot.SyncLt)
}

func (s *PotUpdaterTestSuite) TestUnchangedPot() {
	pot := s.createPot(1)
	pot.JettonWallet = s.walletAddress(1)
	require.Nil(s.T(), s.db.Save(pot).Error)

	// Idle for a day
	s.now = s.t0.Add(24 * time.Hour)
	s.updater.pass()

	pot = s.reload(1)
	require.True(s.T(), pot.NextUpdate.Equal(s.now.Add(42*time.Minute)))
	require.Empty(s.T(), s.signaler.Targets())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.State.PotsUpdated.Load())
	require.Equal(s.T(), uint64(0), s.monitor.GetReport().Indexer.State.PotsChanged.Load())
}

func (s *PotUpdaterTestSuite) TestOneSignalPerChangedPot() {
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.bet(1, s.t0.Add(time.Minute), 10)
	s.bet(1, s.t0.Add(2*time.Minute), 13)
	s.updater.pass()

	require.Len(s.T(), s.signaler.Targets(), 2)
}

func (s *PotUpdaterTestSuite) TestSignalFailureIgnored() {
	s.signaler.err = errors.New("redis down")
	s.createPot(1)
	s.charge(1, s.t0, 100)
	s.updater.pass()

	require.NotNil(s.T(), s.reload(1).Charged)
	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Indexer.Errors.SignalFailures.Load())
}

func (s *PotUpdaterTestSuite) TestFailingPotDoesNotBlockOthers() {
	s.createPot(1)
	s.createPot(2)

	// Nothing is known about the jetton wallet of this address
	broken := s.reload(1)
	broken.Address = ton.ToUser(testAddress(0x01), false)
	require.Nil(s.T(), s.db.Save(broken).Error)

	s.charge(2, s.t0, 100)
	s.updater.pass()

	require.True(s.T(), s.reload(1).NextUpdate.Equal(s.t0))
	require.NotNil(s.T(), s.reload(2).Charged)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.Errors.PotFailures.Load())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.State.PassesDone.Load())
}

func (s *PotUpdaterTestSuite) TestBatchLimit() {
	s.config.Indexer.MaxBatch = 2
	s.createPot(1)
	s.createPot(2)
	s.createPot(3)

	wait := s.updater.pass()
	require.Equal(s.T(), 5*time.Second, wait)
	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Indexer.State.PotsUpdated.Load())
	require.True(s.T(), s.reload(3).NextUpdate.Equal(s.t0))
}

func (s *PotUpdaterTestSuite) TestWaitsForNextDuePot() {
	require.Equal(s.T(), 5*time.Second, s.updater.pass())

	pot := s.createPot(1)
	pot.NextUpdate = s.t0.Add(2 * time.Second)
	require.Nil(s.T(), s.db.Save(pot).Error)
	require.Equal(s.T(), 2*time.Second, s.updater.pass())

	pot.NextUpdate = s.t0.Add(time.Hour)
	require.Nil(s.T(), s.db.Save(pot).Error)
	require.Equal(s.T(), 5*time.Second, s.updater.pass())
	require.Equal(s.T(), uint64(0), s.monitor.GetReport().Indexer.State.PotsUpdated.Load())
}

func (s *PotUpdaterTestSuite) TestSyncRegression() {
	require.Nil(s.T(), s.store.SaveLastSeqno(s.updater.Ctx, 100))
	s.chain.SetSeqno(50)
	s.createPot(1)

	require.Equal(s.T(), task.FailureDelay(1), s.updater.pass())
	require.Equal(s.T(), task.FailureDelay(2), s.updater.pass())
	require.Equal(s.T(), task.FailureDelay(3), s.updater.pass())

	report := s.monitor.GetReport()
	require.Equal(s.T(), uint64(3), report.Chain.Errors.RegressionDetected.Load())
	require.Equal(s.T(), int64(3), report.Indexer.State.ConsecutiveFailures.Load())
	require.Equal(s.T(), uint64(0), report.Indexer.State.PassesDone.Load())
	require.True(s.T(), s.reload(1).NextUpdate.Equal(s.t0))

	// Node caught up
	s.chain.SetSeqno(101)
	require.Equal(s.T(), 5*time.Second, s.updater.pass())
	require.Equal(s.T(), int64(0), report.Indexer.State.ConsecutiveFailures.Load())
	require.Equal(s.T(), uint64(1), report.Indexer.State.PassesDone.Load())
}

func (s *PotUpdaterTestSuite) TestSeqnoSavedAfterDistance() {
	s.chain.SetSeqno(10)
	s.updater.pass()

	seqno, err := s.store.LastSeqno(s.updater.Ctx)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(0), seqno)

	s.chain.SetSeqno(30)
	s.updater.pass()

	seqno, err = s.store.LastSeqno(s.updater.Ctx)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(30), seqno)
	require.Equal(s.T(), int64(30), s.monitor.GetReport().Chain.State.LastSeqno.Load())
}

func (s *PotUpdaterTestSuite) TestWake() {
	s.config.Indexer.DefaultInterval = time.Hour
	s.createPot(1)

	require.Nil(s.T(), s.updater.Start())
	defer s.updater.StopWait()

	report := s.monitor.GetReport()
	require.Eventually(s.T(), func() bool {
		return report.Indexer.State.PassesDone.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Timer is set 15s ahead, a new pot is picked up only after waking
	s.createPot(2)
	s.updater.Wake()

	require.Eventually(s.T(), func() bool {
		return report.Indexer.State.PotsUpdated.Load() == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *PotUpdaterTestSuite) TestStopFinishesCurrentPot() {
	chain := &hookedChain{MemoryChain: s.chain, beforeTransactions: s.updater.Stop}
	s.updater.WithReader(ton.NewBlockchainReader(chain))

	s.createPot(1)
	s.createPot(2)
	s.charge(1, s.t0, 100)
	s.bet(1, s.t0.Add(time.Minute), 10)

	s.updater.pass()

	pot := s.reload(1)
	require.NotNil(s.T(), pot.Charged)
	require.NotNil(s.T(), pot.FirstTx)
	require.Equal(s.T(), s.lt, pot.SyncLt)
	require.Len(s.T(), s.transactions(1), 2)
	require.Equal(s.T(), uint64(0), s.monitor.GetReport().Indexer.Errors.PotFailures.Load())

	// Nothing new is started after the stop request
	require.True(s.T(), s.reload(2).NextUpdate.Equal(s.t0))
}

func (s *PotUpdaterTestSuite) TestPanicFailsOnlyThatPot() {
	chain := &hookedChain{MemoryChain: s.chain, beforeAccountState: func(account string) {
		if account == s.potAddress(1) {
			panic("malformed account state")
		}
	}}
	s.updater.WithReader(ton.NewBlockchainReader(chain))

	s.createPot(1)
	s.createPot(2)
	s.charge(2, s.t0, 100)

	s.updater.pass()

	require.True(s.T(), s.reload(1).NextUpdate.Equal(s.t0))
	require.NotNil(s.T(), s.reload(2).Charged)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.Errors.PotFailures.Load())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Indexer.State.PassesDone.Load())
}

func (s *PotUpdaterTestSuite) TestRedisDownDoesNotStall() {
	server := miniredis.RunT(s.T())
	port, err := strconv.Atoi(server.Port())
	require.Nil(s.T(), err)

	s.config.Redis.Host = server.Host()
	s.config.Redis.Port = uint16(port)
	s.config.Redis.MaxWorkers = 1
	s.config.Redis.MaxQueueSize = 1
	s.config.StopTimeout = 5 * time.Second

	signaler := notify.NewRedisSignaler(s.config).WithMonitor(s.monitor)
	require.Nil(s.T(), signaler.Start())
	defer signaler.StopWait()
	s.updater.WithSignaler(signaler)

	server.Close()

	for id := int64(1); id <= 10; id++ {
		s.createPot(id)
		s.charge(id, s.t0, 100)
	}

	done := make(chan struct{})
	go func() {
		s.updater.pass()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.T().Fatal("pass blocked on signals")
	}

	for id := int64(1); id <= 10; id++ {
		require.NotNil(s.T(), s.reload(id).Charged)
	}
	report := s.monitor.GetReport()
	require.Equal(s.T(), uint64(10), report.Indexer.State.PotsChanged.Load())
	require.Greater(s.T(), report.Indexer.Errors.SignalFailures.Load(), uint64(0))
}
