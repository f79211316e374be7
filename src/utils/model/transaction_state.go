package model

type TransactionState int

const (
	// Eligible for classification
	TransactionStateUnprocessed TransactionState = 0

	// Rejected while ingesting
	TransactionStateInvalidNoInMsg       TransactionState = 10
	TransactionStateInvalidNoSender      TransactionState = 11
	TransactionStateInvalidUnknownJetton TransactionState = 12
	TransactionStateInvalidBadPayload    TransactionState = 13

	TransactionStateSkippedUnknown TransactionState = 20

	TransactionStateChargeOk           TransactionState = 30
	TransactionStateChargeNotFromOwner TransactionState = 31
	TransactionStateChargeAlreadyDone  TransactionState = 32
	TransactionStateChargeTooSmall     TransactionState = 33

	TransactionStateBetOk           TransactionState = 50
	TransactionStateBetBeforeCharge TransactionState = 51
	TransactionStateBetAfterStolen  TransactionState = 52
	TransactionStateBetTooSmall     TransactionState = 53

	// Not a jetton transfer at all
	TransactionStateUnknownIgnored TransactionState = 255
)

var transactionStateNames = map[TransactionState]string{
	TransactionStateUnprocessed:          "Unprocessed",
	TransactionStateInvalidNoInMsg:       "InvalidNoInMsg",
	TransactionStateInvalidNoSender:      "InvalidNoSender",
	TransactionStateInvalidUnknownJetton: "InvalidUnknownJetton",
	TransactionStateInvalidBadPayload:    "InvalidBadPayload",
	TransactionStateSkippedUnknown:       "SkippedUnknown",
	TransactionStateChargeOk:             "ChargeOk",
	TransactionStateChargeNotFromOwner:   "ChargeNotFromOwner",
	TransactionStateChargeAlreadyDone:    "ChargeAlreadyDone",
	TransactionStateChargeTooSmall:       "ChargeTooSmall",
	TransactionStateBetOk:                "BetOk",
	TransactionStateBetBeforeCharge:      "BetBeforeCharge",
	TransactionStateBetAfterStolen:       "BetAfterStolen",
	TransactionStateBetTooSmall:          "BetTooSmall",
	TransactionStateUnknownIgnored:       "UnknownIgnored",
}

func (self TransactionState) String() string {
	name, ok := transactionStateNames[self]
	if !ok {
		return "Unknown"
	}
	return name
}
