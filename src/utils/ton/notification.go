package ton

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// transfer_notification#7362d09c query_id:uint64 amount:(VarUInteger 16) sender:MsgAddress forward_payload:(Either Cell ^Cell)
const OpTransferNotification = 0x7362d09c

// Incoming jetton transfer, as reported by the recipient's jetton wallet
type TransferNotification struct {
	// Jetton wallet that sent the notification
	JettonWallet string

	QueryId uint64

	// Raw amount, not divided by jetton decimals
	Amount *big.Int

	// Wallet of the person that made the transfer
	Sender *address.Address

	// Forward payload, nil when absent
	Payload *cell.Cell
}

// Reports false for anything that isn't a well formed transfer notification.
func TryParseTransferNotification(msg *InboundMessage) (out TransferNotification, ok bool) {
	if msg == nil || len(msg.Body) == 0 {
		return
	}

	root, err := cell.FromBOC(msg.Body)
	if err != nil {
		return
	}

	s := root.BeginParse()
	if s.BitsLeft() < 32 {
		return
	}

	op, err := s.LoadUInt(32)
	if err != nil || op != OpTransferNotification {
		return
	}

	out.JettonWallet = msg.Source

	out.QueryId, err = s.LoadUInt(64)
	if err != nil {
		return TransferNotification{}, false
	}

	out.Amount, err = s.LoadBigCoins()
	if err != nil {
		return TransferNotification{}, false
	}

	out.Sender, err = s.LoadAddr()
	if err != nil || out.Sender.Type() != address.StdAddress {
		return TransferNotification{}, false
	}

	// Some wallets don't write the forward payload at all
	if s.BitsLeft() == 0 && s.RefsNum() == 0 {
		return out, true
	}

	inRef, err := s.LoadBoolBit()
	if err != nil {
		return TransferNotification{}, false
	}

	if inRef {
		ref, err := s.LoadRef()
		if err != nil {
			return TransferNotification{}, false
		}
		out.Payload, err = ref.ToCell()
		if err != nil {
			return TransferNotification{}, false
		}
	} else {
		out.Payload, err = s.ToCell()
		if err != nil {
			return TransferNotification{}, false
		}
	}

	return out, true
}

// Serializes a transfer notification body, payload stored in a reference
func BuildTransferNotification(queryId uint64, amount *big.Int, sender *address.Address, payload *cell.Cell) (boc []byte, err error) {
	b := cell.BeginCell()
	err = b.StoreUInt(OpTransferNotification, 32)
	if err != nil {
		return
	}
	err = b.StoreUInt(queryId, 64)
	if err != nil {
		return
	}
	err = b.StoreBigCoins(amount)
	if err != nil {
		return
	}
	err = b.StoreAddr(sender)
	if err != nil {
		return
	}

	if payload == nil {
		err = b.StoreBoolBit(false)
	} else {
		err = b.StoreBoolBit(true)
		if err == nil {
			err = b.StoreRef(payload)
		}
	}
	if err != nil {
		return
	}

	return b.EndCell().ToBOC(), nil
}
