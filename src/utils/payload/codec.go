// Package payload encodes and decodes the metadata attached to jetton transfers
// sent to pots. It correlates an otherwise anonymous transfer with a user and an intent.
package payload

import (
	"errors"
	"math/rand/v2"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	Version    = 0xF2
	FillerBits = 19

	OpCharge int32 = 0x26b3e995
	OpBet    int32 = 0x7a795387
)

var ErrEncode = errors.New("failed to encode payload")

type Intent uint8

const (
	IntentNone Intent = iota
	IntentCharge
	IntentBet
)

func (self Intent) String() string {
	switch self {
	case IntentCharge:
		return "charge"
	case IntentBet:
		return "bet"
	default:
		return "none"
	}
}

type Payload struct {
	Intent Intent
	UserId int64

	// Set only for bets, nil when absent
	Referrer *address.Address
}

// Source of the filler bits. They only make payloads of the same user look different on chain.
var filler = func() uint64 {
	return rand.Uint64()
}

// Builds the payload cell. Referrer is written only for bets, nil is stored as addr_none.
func Encode(opcode int32, userId int64, referrer *address.Address) (c *cell.Cell, err error) {
	b := cell.BeginCell()

	err = errors.Join(
		b.StoreUInt(Version, 8),
		b.StoreUInt(filler()&(1<<FillerBits-1), FillerBits),
		b.StoreInt(int64(opcode), 32),
		b.StoreInt(userId, 64),
	)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	if opcode == OpBet {
		if referrer == nil || referrer.Type() == address.NoneAddress {
			err = b.StoreUInt(0, 2)
		} else {
			err = b.StoreAddr(referrer)
		}
		if err != nil {
			return nil, errors.Join(ErrEncode, err)
		}
	}

	return b.EndCell(), nil
}

func EncodeBOC(opcode int32, userId int64, referrer *address.Address) ([]byte, error) {
	c, err := Encode(opcode, userId, referrer)
	if err != nil {
		return nil, err
	}
	return c.ToBOC(), nil
}

// Parses the payload cell. Returns false for anything that isn't a payload of the known version.
// Opcodes other than charge and bet are not an error, they decode as IntentNone.
func Decode(c *cell.Cell) (out Payload, ok bool) {
	if c == nil {
		return
	}

	s := c.BeginParse()
	if s.BitsLeft() < 8 {
		return
	}

	version, err := s.LoadUInt(8)
	if err != nil || version != Version {
		return
	}

	_, err = s.LoadUInt(FillerBits)
	if err != nil {
		return
	}

	opcode, err := s.LoadInt(32)
	if err != nil {
		return
	}

	out.UserId, err = s.LoadInt(64)
	if err != nil {
		return Payload{}, false
	}

	switch int32(opcode) {
	case OpCharge:
		out.Intent = IntentCharge
	case OpBet:
		out.Intent = IntentBet
	default:
		out.Intent = IntentNone
	}

	if out.Intent == IntentBet {
		referrer, err := s.LoadAddr()
		if err != nil {
			return Payload{}, false
		}
		switch referrer.Type() {
		case address.NoneAddress:
		case address.StdAddress:
			out.Referrer = referrer
		default:
			return Payload{}, false
		}
	}

	return out, true
}

func DecodeBOC(boc []byte) (Payload, bool) {
	c, err := cell.FromBOC(boc)
	if err != nil {
		return Payload{}, false
	}
	return Decode(c)
}
