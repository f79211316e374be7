package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Duration persisted as whole seconds
type Seconds time.Duration

func (self Seconds) Duration() time.Duration {
	return time.Duration(self)
}

func (self Seconds) Value() (driver.Value, error) {
	return int64(time.Duration(self) / time.Second), nil
}

func (self *Seconds) Scan(value any) (err error) {
	var n int64
	switch v := value.(type) {
	case int64:
		n = v
	case float64:
		n = int64(v)
	case []byte:
		n, err = strconv.ParseInt(string(v), 10, 64)
	case string:
		n, err = strconv.ParseInt(v, 10, 64)
	case nil:
	default:
		err = fmt.Errorf("unsupported seconds value %T", value)
	}
	if err != nil {
		return
	}
	*self = Seconds(time.Duration(n) * time.Second)
	return
}
