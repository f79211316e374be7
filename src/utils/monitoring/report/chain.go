package report

import "go.uber.org/atomic"

type ChainErrors struct {
	RegressionDetected atomic.Uint64 `json:"regression_detected"`
}

type ChainState struct {
	LastSeqno atomic.Int64 `json:"last_seqno"`
}

type ChainReport struct {
	State  ChainState  `json:"state"`
	Errors ChainErrors `json:"errors"`
}
