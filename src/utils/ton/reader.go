package ton

import (
	"context"
	"fmt"

	"github.com/magicpot/indexer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Domain shaped reads on top of ChainClient
type BlockchainReader struct {
	client ChainClient
	log    *logrus.Entry
}

func NewBlockchainReader(client ChainClient) (self *BlockchainReader) {
	self = new(BlockchainReader)
	self.client = client
	self.log = logger.NewSublogger("blockchain-reader")
	return
}

// Fails with SyncRegressionError if the node reports a height below the last one seen
func (self *BlockchainReader) EnsureSynced(ctx context.Context, lastKnownSeqno int64) (seqno int64, err error) {
	err = self.client.InitIfNeeded(ctx)
	if err != nil {
		return
	}

	seqno, err = self.client.Sync(ctx)
	if err != nil {
		return
	}

	self.log.WithField("seqno", seqno).Debug("Synced to masterchain block")

	if seqno < lastKnownSeqno {
		self.client.Deinit()
		return seqno, &SyncRegressionError{Seqno: seqno, LastKnownSeqno: lastKnownSeqno}
	}

	return
}

func (self *BlockchainReader) GetAccountState(ctx context.Context, address string) (state AccountState, err error) {
	err = self.client.InitIfNeeded(ctx)
	if err != nil {
		return
	}
	return self.client.RawGetAccountState(ctx, address)
}

func (self *BlockchainReader) GetJettonWallet(ctx context.Context, master, owner string) (wallet string, err error) {
	err = self.client.InitIfNeeded(ctx)
	if err != nil {
		return
	}
	return self.client.GetJettonWallet(ctx, master, owner)
}

// Walks the history of address backwards, starting at start (inclusive) and stopping
// before the first transaction with lt <= endLt. Calls f for every transaction; an error
// returned from f stops the walk.
func (self *BlockchainReader) EnumerateTransactions(ctx context.Context, address string, start TransactionId, endLt int64, f func(RawTransaction) error) (err error) {
	err = self.client.InitIfNeeded(ctx)
	if err != nil {
		return
	}

	for !start.IsEmpty() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var page TransactionsPage
		page, err = self.client.RawGetTransactions(ctx, address, start)
		if err != nil {
			return fmt.Errorf("failed to get transactions of %s from lt=%d: %w", address, start.Lt, err)
		}

		if len(page.Transactions) == 0 {
			return nil
		}

		for _, tx := range page.Transactions {
			if tx.Id.Lt <= endLt {
				return nil
			}

			err = f(tx)
			if err != nil {
				return
			}
		}

		if page.Previous.Lt <= endLt {
			return nil
		}
		start = page.Previous
	}

	return nil
}

func (self *BlockchainReader) TryParseTransferNotification(msg *InboundMessage) (TransferNotification, bool) {
	return TryParseTransferNotification(msg)
}
