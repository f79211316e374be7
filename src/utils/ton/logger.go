package ton

import (
	"github.com/magicpot/indexer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Passes resty logs to logrus
type restyLogger struct {
	log        *logrus.Entry
	forceTrace bool
}

func newRestyLogger(forceTrace bool) *restyLogger {
	return &restyLogger{
		log:        logger.NewSublogger("resty"),
		forceTrace: forceTrace,
	}
}

func (self *restyLogger) Errorf(format string, v ...interface{}) {
	if self.forceTrace {
		self.log.Tracef(format, v...)
		return
	}
	self.log.Errorf(format, v...)
}

func (self *restyLogger) Warnf(format string, v ...interface{}) {
	if self.forceTrace {
		self.log.Tracef(format, v...)
		return
	}
	self.log.Warnf(format, v...)
}

func (self *restyLogger) Debugf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}
