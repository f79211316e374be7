package report

import "go.uber.org/atomic"

type WakeListenerErrors struct {
	Wait atomic.Uint64 `json:"wait"`
}

type WakeListenerState struct {
	NotificationsReceived atomic.Uint64 `json:"notifications_received"`
}

type WakeListenerReport struct {
	State  WakeListenerState  `json:"state"`
	Errors WakeListenerErrors `json:"errors"`
}
