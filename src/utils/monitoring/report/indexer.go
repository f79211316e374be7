package report

import "go.uber.org/atomic"

type IndexerErrors struct {
	PotFailures      atomic.Uint64 `json:"pot_failures"`
	SyncFailures     atomic.Uint64 `json:"sync_failures"`
	DbSelectFailures atomic.Uint64 `json:"db_select_failures"`
	SignalFailures   atomic.Uint64 `json:"signal_failures"`
	ChainFailures    atomic.Uint64 `json:"chain_failures"`
}

type IndexerState struct {
	PassesDone             atomic.Uint64 `json:"passes_done"`
	PotsUpdated            atomic.Uint64 `json:"pots_updated"`
	PotsChanged            atomic.Uint64 `json:"pots_changed"`
	TransactionsIngested   atomic.Uint64 `json:"transactions_ingested"`
	TransactionsClassified atomic.Uint64 `json:"transactions_classified"`
	MessagesScheduled      atomic.Uint64 `json:"messages_scheduled"`
	ChargesAccepted        atomic.Uint64 `json:"charges_accepted"`
	BetsAccepted           atomic.Uint64 `json:"bets_accepted"`
	PotsStolen             atomic.Uint64 `json:"pots_stolen"`
	SignalsSent            atomic.Uint64 `json:"signals_sent"`
	ConsecutiveFailures    atomic.Int64  `json:"consecutive_failures"`
	LastPassTimestamp      atomic.Int64  `json:"last_pass_timestamp"`

	AverageTransactionsIngestedPerMinute atomic.Float64 `json:"average_transactions_ingested_per_minute"`
}

type IndexerReport struct {
	State  IndexerState  `json:"state"`
	Errors IndexerErrors `json:"errors"`
}
