package model

type TransactionOpcode int

const (
	TransactionOpcodeNone   TransactionOpcode = 0
	TransactionOpcodeCharge TransactionOpcode = 10
	TransactionOpcodeBet    TransactionOpcode = 20
)

func (self TransactionOpcode) String() string {
	switch self {
	case TransactionOpcodeCharge:
		return "Charge"
	case TransactionOpcodeBet:
		return "Bet"
	default:
		return "None"
	}
}
