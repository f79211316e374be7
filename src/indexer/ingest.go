package indexer

import (
	"github.com/magicpot/indexer/src/utils/model"
	"github.com/magicpot/indexer/src/utils/payload"
	"github.com/magicpot/indexer/src/utils/ton"

	"github.com/shopspring/decimal"
)

// Builds the ledger row of a raw transaction. Rows that can't take part in the game
// get their final negative state right away, the rest are left Unprocessed.
func newTransaction(pot *model.Pot, raw ton.RawTransaction, decimals uint8, testnet bool) (tx *model.Transaction) {
	tx = &model.Transaction{
		PotId:  pot.Id,
		Hash:   raw.Id.Hash,
		Lt:     raw.Id.Lt,
		Time:   raw.Time,
		Amount: decimal.Zero,
		OpCode: model.TransactionOpcodeNone,
	}

	if raw.InMsg == nil {
		tx.State = model.TransactionStateInvalidNoInMsg
		return
	}

	if raw.InMsg.Source == "" {
		tx.State = model.TransactionStateInvalidNoSender
		return
	}
	tx.Sender = raw.InMsg.Source

	notification, ok := ton.TryParseTransferNotification(raw.InMsg)
	if !ok {
		tx.State = model.TransactionStateUnknownIgnored
		return
	}

	tx.IsTokenTransfer = true
	tx.Amount = decimal.NewFromBigInt(notification.Amount, -int32(decimals))
	tx.Sender = ton.ToUser(notification.Sender, testnet)

	if !ton.SameAddress(notification.JettonWallet, pot.JettonWallet) {
		tx.State = model.TransactionStateInvalidUnknownJetton
		return
	}

	if notification.Payload == nil {
		tx.State = model.TransactionStateInvalidBadPayload
		return
	}

	decoded, ok := payload.Decode(notification.Payload)
	if !ok {
		tx.State = model.TransactionStateInvalidBadPayload
		return
	}

	switch decoded.Intent {
	case payload.IntentCharge:
		tx.OpCode = model.TransactionOpcodeCharge
	case payload.IntentBet:
		tx.OpCode = model.TransactionOpcodeBet
	}

	userId := decoded.UserId
	tx.UserId = &userId

	if decoded.Referrer != nil {
		referrer := ton.ToUser(decoded.Referrer, testnet)
		tx.Referrer = &referrer
	}

	tx.State = model.TransactionStateUnprocessed
	return
}
