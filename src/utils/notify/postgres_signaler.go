package notify

import (
	"context"

	"github.com/magicpot/indexer/src/utils/config"

	"gorm.io/gorm"
)

// Sends signals with pg_notify, one channel per target
type PostgresSignaler struct {
	db     *gorm.DB
	prefix string
}

func NewPostgresSignaler(config *config.Config, db *gorm.DB) *PostgresSignaler {
	return &PostgresSignaler{
		db:     db,
		prefix: channelPrefix(config),
	}
}

func (self *PostgresSignaler) Signal(ctx context.Context, target string) error {
	msg := Signal{Prefix: self.prefix, Target: target}
	payload, _ := msg.MarshalBinary()
	return self.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", msg.Channel(), string(payload)).Error
}
