package indexer

import (
	"github.com/magicpot/indexer/src/utils/model"
	"github.com/magicpot/indexer/src/utils/ton"
)

// Decides the row's final state and applies its effects to the pot.
// Returns messages that have to be queued for users.
func classify(pot *model.Pot, tx *model.Transaction) (messages []*model.ScheduledMessage) {
	switch tx.OpCode {
	case model.TransactionOpcodeCharge:
		messages = classifyCharge(pot, tx)
	case model.TransactionOpcodeBet:
		messages = classifyBet(pot, tx)
	default:
		tx.State = model.TransactionStateSkippedUnknown
	}

	// Whatever arrived before the pot got stolen belongs to it
	pot.Accumulate(tx.Amount)
	return
}

func classifyCharge(pot *model.Pot, tx *model.Transaction) []*model.ScheduledMessage {
	switch {
	case !ton.SameAddress(tx.Sender, pot.OwnerUserAddress):
		tx.State = model.TransactionStateChargeNotFromOwner
	case pot.Charged != nil:
		tx.State = model.TransactionStateChargeAlreadyDone
	case tx.Amount.LessThan(pot.InitialSize):
		tx.State = model.TransactionStateChargeTooSmall
	default:
		tx.State = model.TransactionStateChargeOk
		pot.SetCharged(tx.Time)
		return []*model.ScheduledMessage{
			model.NewScheduledMessage(pot.Id, model.ScheduledMessageTypeReferralRichMessage, nil),
		}
	}
	return nil
}

func classifyBet(pot *model.Pot, tx *model.Transaction) (messages []*model.ScheduledMessage) {
	switch {
	case pot.Charged == nil:
		tx.State = model.TransactionStateBetBeforeCharge
	case pot.Stolen != nil:
		tx.State = model.TransactionStateBetAfterStolen
	case pot.ExpiredBefore(tx.Time):
		// Countdown lapsed before this bet arrived
		pot.SetStolen()
		tx.State = model.TransactionStateBetAfterStolen
	case tx.Amount.LessThan(pot.TxSizeNext):
		tx.State = model.TransactionStateBetTooSmall
		if tx.UserId != nil {
			messages = append(messages, model.NewScheduledMessage(pot.Id, model.ScheduledMessageTypePotTransactionDeclined, tx.UserId))
		}
	default:
		tx.State = model.TransactionStateBetOk
		if tx.UserId != nil {
			messages = append(messages, model.NewScheduledMessage(pot.Id, model.ScheduledMessageTypePotTransactionAccepted, tx.UserId))
		}
		if pot.SetFirstTx(tx.Time) {
			owner := pot.OwnerUserId
			messages = append(messages, model.NewScheduledMessage(pot.Id, model.ScheduledMessageTypePotStarted, &owner))
		}
		pot.GrowTxSizeNext()

		t := tx.Time
		pot.LastTx = &t
		pot.TxCount++
	}
	return
}
