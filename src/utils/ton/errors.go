package ton

import "fmt"

// Remote node is behind what was already observed
type SyncRegressionError struct {
	Seqno          int64
	LastKnownSeqno int64
}

func (self *SyncRegressionError) Error() string {
	return fmt.Sprintf("sync failed: seqno %d is less than last known %d", self.Seqno, self.LastKnownSeqno)
}

func (self *SyncRegressionError) Is(target error) bool {
	return target == ErrSyncRegression
}
