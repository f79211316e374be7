package indexer

import (
	"errors"
	"fmt"
	"time"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/model"
	"github.com/magicpot/indexer/src/utils/monitoring"
	"github.com/magicpot/indexer/src/utils/notify"
	"github.com/magicpot/indexer/src/utils/task"
	"github.com/magicpot/indexer/src/utils/ton"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Seqno is written to the database after moving this far
const seqnoSaveDistance = 19

// Periodically picks due pots and brings them up to date with the chain.
// Passes never overlap, pots are processed one by one.
type PotUpdater struct {
	*task.Task

	store    *Store
	reader   *ton.BlockchainReader
	signaler notify.Signaler
	monitor  monitoring.Monitor

	// Wakes the loop before the timer fires
	wake chan struct{}

	now func() time.Time

	// Sync guard
	seqnoLoaded bool
	lastSeqno   int64
	savedSeqno  int64
	failures    int
}

func NewPotUpdater(config *config.Config) (self *PotUpdater) {
	self = new(PotUpdater)

	self.wake = make(chan struct{}, 1)
	self.now = func() time.Time {
		return time.Now().UTC()
	}
	self.signaler = notify.NopSignaler{}

	self.Task = task.NewTask(config, "pot-updater").
		WithSubtaskFunc(self.run)

	return
}

func (self *PotUpdater) WithStore(v *Store) *PotUpdater {
	self.store = v
	return self
}

func (self *PotUpdater) WithReader(v *ton.BlockchainReader) *PotUpdater {
	self.reader = v
	return self
}

func (self *PotUpdater) WithSignaler(v notify.Signaler) *PotUpdater {
	self.signaler = v
	return self
}

func (self *PotUpdater) WithMonitor(v monitoring.Monitor) *PotUpdater {
	self.monitor = v
	return self
}

// Requests a pass as soon as possible. Never blocks, requests made during a pass are merged.
func (self *PotUpdater) Wake() {
	select {
	case self.wake <- struct{}{}:
	default:
	}
}

func (self *PotUpdater) run() error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-self.StopChannel:
			self.Log.Debug("Stopped")
			return nil
		case <-self.wake:
			self.Log.Trace("Woken up")
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		timer.Reset(self.pass())
	}
}

// One batch. Returns time to wait before the next one.
func (self *PotUpdater) pass() (wait time.Duration) {
	log := self.Log.WithField("batch", xid.New().String())
	report := self.monitor.GetReport()

	wait, err := self.runBatch(log)
	if err != nil {
		self.failures++
		wait = task.FailureDelay(self.failures)
		report.Indexer.State.ConsecutiveFailures.Store(int64(self.failures))

		log.WithError(err).
			WithField("failures", self.failures).
			WithField("retry_in", wait).
			Warn("Pass failed")
		return
	}

	self.failures = 0
	report.Indexer.State.ConsecutiveFailures.Store(0)
	report.Indexer.State.PassesDone.Inc()
	report.Indexer.State.LastPassTimestamp.Store(self.now().Unix())
	return
}

func (self *PotUpdater) runBatch(log *logrus.Entry) (wait time.Duration, err error) {
	report := self.monitor.GetReport()
	interval := self.Config.Indexer.DefaultInterval

	err = self.ensureSynced()
	if err != nil {
		report.Indexer.Errors.SyncFailures.Inc()
		if errors.Is(err, ton.ErrSyncRegression) {
			report.Chain.Errors.RegressionDetected.Inc()
		}
		return
	}

	var failed []int64
	for i := 0; i < self.Config.Indexer.MaxBatch; i++ {
		if self.Ctx.Err() != nil {
			// Stopping, pots done so far are already saved
			return interval, nil
		}

		var pot *model.Pot
		pot, err = self.store.NextPot(self.Ctx, failed)
		if errors.Is(err, ErrNoPotDue) {
			log.Trace("Queue is empty")
			return interval, nil
		}
		if err != nil {
			report.Indexer.Errors.DbSelectFailures.Inc()
			return
		}

		until := pot.NextUpdate.Sub(self.now())
		if until > 0 {
			log.WithField("next", pot.NextUpdate).Trace("Next pot not due yet")
			return min(until, interval), nil
		}

		err = self.updatePot(log.WithField("pot", pot.Key), pot)
		if err != nil {
			// Left as is, retried in the next pass
			failed = append(failed, pot.Id)
			report.Indexer.Errors.PotFailures.Inc()
			log.WithError(err).WithField("pot", pot.Key).Error("Failed to update pot")
			err = nil
		}
	}

	return interval, nil
}

// Fails if the node is behind the last height this indexer has seen
func (self *PotUpdater) ensureSynced() (err error) {
	if !self.seqnoLoaded {
		self.lastSeqno, err = self.store.LastSeqno(self.Ctx)
		if err != nil {
			return
		}
		self.savedSeqno = self.lastSeqno
		self.seqnoLoaded = true
	}

	seqno, err := self.reader.EnsureSynced(self.Ctx, self.lastSeqno)
	if err != nil {
		return
	}

	self.lastSeqno = seqno
	self.monitor.GetReport().Chain.State.LastSeqno.Store(seqno)

	if seqno-self.savedSeqno > seqnoSaveDistance {
		err = self.store.SaveLastSeqno(self.Ctx, seqno)
		if err != nil {
			return
		}
		self.savedSeqno = seqno
	}
	return
}

// Once started a pot is finished even if stopping was requested meanwhile,
// so all of its I/O uses CtxRunning. Panics fail only this pot.
func (self *PotUpdater) updatePot(log *logrus.Entry, pot *model.Pot) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	changed, err := self.update(log, pot)
	if err != nil {
		return
	}

	pot.UpdateNextUpdate(self.now())
	err = self.store.SavePot(self.CtxRunning, pot)
	if err != nil {
		return
	}

	report := self.monitor.GetReport()
	report.Indexer.State.PotsUpdated.Inc()
	if changed {
		report.Indexer.State.PotsChanged.Inc()
		self.signal(log)
	}

	log.WithField("state", pot.State()).
		WithField("next", pot.NextUpdate).
		WithField("changed", changed).
		Debug("Pot updated")
	return
}

func (self *PotUpdater) update(log *logrus.Entry, pot *model.Pot) (changed bool, err error) {
	changed, err = self.resolveJettonWallet(log, pot)
	if err != nil {
		return
	}

	state, err := self.reader.GetAccountState(self.CtxRunning, pot.Address)
	if err != nil {
		self.monitor.GetReport().Indexer.Errors.ChainFailures.Inc()
		return
	}

	if state.LastTransaction.Lt == pot.SyncLt {
		pot.AdvanceCursor(pot.SyncLt, state.SyncTime)
		err = self.store.SavePot(self.CtxRunning, pot)
		if err != nil {
			return
		}
		log.WithField("lt", pot.SyncLt).Trace("Pot unchanged")
	} else {
		var found bool
		found, err = self.ingest(log, pot, state)
		if err != nil {
			return
		}
		changed = changed || found
	}

	// Also picks up rows left behind by a failed pass
	classified, err := self.classifyPending(log, pot)
	if err != nil {
		return
	}
	changed = changed || classified

	stolen, err := self.checkStolen(log, pot)
	if err != nil {
		return
	}
	changed = changed || stolen

	return
}

func (self *PotUpdater) resolveJettonWallet(log *logrus.Entry, pot *model.Pot) (changed bool, err error) {
	if pot.JettonWallet != "" {
		return false, nil
	}

	pot.JettonWallet, err = self.reader.GetJettonWallet(self.CtxRunning, pot.JettonMaster, pot.Address)
	if err != nil {
		self.monitor.GetReport().Indexer.Errors.ChainFailures.Inc()
		return
	}

	err = self.store.SaveJettonWallet(self.CtxRunning, pot)
	if err != nil {
		return
	}

	log.WithField("wallet", pot.JettonWallet).Info("Got jetton wallet")
	return true, nil
}

// Stores a row for every transaction newer than the cursor, then moves the cursor.
// Returns true if any of the new rows can take part in the game.
func (self *PotUpdater) ingest(log *logrus.Entry, pot *model.Pot, state ton.AccountState) (found bool, err error) {
	decimals, err := self.store.JettonDecimals(self.CtxRunning, pot.JettonMaster)
	if err != nil {
		return
	}

	report := self.monitor.GetReport()
	err = self.reader.EnumerateTransactions(self.CtxRunning, pot.Address, state.LastTransaction, pot.SyncLt, func(raw ton.RawTransaction) error {
		tx := newTransaction(pot, raw, decimals, self.Config.Ton.Testnet)

		inserted, err := self.store.InsertTransaction(self.CtxRunning, tx)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		report.Indexer.State.TransactionsIngested.Inc()
		found = found || tx.State == model.TransactionStateUnprocessed

		log.WithField("hash", tx.Hash).
			WithField("lt", tx.Lt).
			WithField("state", tx.State).
			WithField("sender", tx.Sender).
			Debug("New transaction")
		return nil
	})
	if err != nil {
		report.Indexer.Errors.ChainFailures.Inc()
		return
	}

	pot.AdvanceCursor(state.LastTransaction.Lt, state.SyncTime)
	pot.Touch(self.now())
	err = self.store.SavePot(self.CtxRunning, pot)
	if err != nil {
		return
	}

	log.WithField("lt", pot.SyncLt).WithField("sync", pot.SyncUtime).Info("Pot synced")
	return
}

// Classifies Unprocessed rows oldest first, committing each one separately
func (self *PotUpdater) classifyPending(log *logrus.Entry, pot *model.Pot) (changed bool, err error) {
	rows, err := self.store.UnprocessedTransactions(self.CtxRunning, pot.Id)
	if err != nil {
		return
	}

	report := self.monitor.GetReport()
	for _, tx := range rows {
		wasStolen := pot.Stolen != nil

		messages := classify(pot, tx)
		pot.Touch(self.now())

		err = self.store.ApplyClassification(self.CtxRunning, pot, tx, messages)
		if err != nil {
			return
		}

		report.Indexer.State.TransactionsClassified.Inc()
		report.Indexer.State.MessagesScheduled.Add(uint64(len(messages)))
		switch tx.State {
		case model.TransactionStateChargeOk:
			report.Indexer.State.ChargesAccepted.Inc()
		case model.TransactionStateBetOk:
			report.Indexer.State.BetsAccepted.Inc()
		}
		if !wasStolen && pot.Stolen != nil {
			report.Indexer.State.PotsStolen.Inc()
		}

		log.WithField("hash", tx.Hash).
			WithField("state", tx.State).
			WithField("amount", tx.Amount).
			WithField("total", pot.TotalSize).
			Info("Transaction classified")
	}

	return len(rows) > 0, nil
}

// Ends the round once the countdown lapsed without new bets
func (self *PotUpdater) checkStolen(log *logrus.Entry, pot *model.Pot) (changed bool, err error) {
	if pot.Stolen != nil || !pot.ExpiredBefore(self.now()) {
		return false, nil
	}

	pot.SetStolen()
	pot.Touch(self.now())
	err = self.store.SavePot(self.CtxRunning, pot)
	if err != nil {
		return
	}

	self.monitor.GetReport().Indexer.State.PotsStolen.Inc()
	log.WithField("stolen", pot.Stolen).Info("Pot stolen")
	return true, nil
}

// Wakes the cache refresher and the message dispatcher
func (self *PotUpdater) signal(log *logrus.Entry) {
	report := self.monitor.GetReport()
	for _, target := range []string{notify.TargetCachedData, notify.TargetScheduledMessageSender} {
		err := self.signaler.Signal(self.CtxRunning, target)
		if err != nil {
			report.Indexer.Errors.SignalFailures.Inc()
			log.WithError(err).WithField("target", target).Warn("Failed to signal")
			continue
		}
		report.Indexer.State.SignalsSent.Inc()
	}
}
