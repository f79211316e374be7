package indexer

import "errors"

var (
	// No pots in the queue at all
	ErrNoPotDue = errors.New("no pot due")
)
