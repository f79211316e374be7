package notify

import (
	"context"

	"github.com/magicpot/indexer/src/utils/config"
)

// Logical names of the components woken after a pot changed
const (
	TargetCachedData             = "CachedData"
	TargetScheduledMessageSender = "ScheduledMessageSender"
)

// Asks other components to run now. Signals carry no data.
type Signaler interface {
	Signal(ctx context.Context, target string) error
}

// Message sent to a target's channel
type Signal struct {
	Prefix string
	Target string
}

func (self Signal) Channel() string {
	return self.Prefix + self.Target
}

func (self Signal) MarshalBinary() ([]byte, error) {
	return []byte(self.Target), nil
}

// Used when nobody listens for signals
type NopSignaler struct{}

func (NopSignaler) Signal(ctx context.Context, target string) error {
	return nil
}

func channelPrefix(config *config.Config) string {
	return config.Notifier.ChannelPrefix
}
