package indexer

import (
	"context"
	"errors"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/logger"
	"github.com/magicpot/indexer/src/utils/model"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Everything the indexer reads and writes in the database
type Store struct {
	db      *gorm.DB
	config  *config.Config
	log     *logrus.Entry
	jettons *cache.Cache
}

func NewStore(config *config.Config) (self *Store) {
	self = new(Store)
	self.config = config
	self.log = logger.NewSublogger("store")
	self.jettons = cache.New(config.Indexer.JettonCacheTTL, 2*config.Indexer.JettonCacheTTL)
	return
}

func (self *Store) WithDB(db *gorm.DB) *Store {
	self.db = db
	return self
}

// Pot with the smallest NextUpdate, skipping excluded ids
func (self *Store) NextPot(ctx context.Context, exclude []int64) (pot *model.Pot, err error) {
	query := self.db.WithContext(ctx).Order("next_update ASC, id ASC")
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	pot = new(model.Pot)
	err = query.Take(pot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPotDue
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *Store) SavePot(ctx context.Context, pot *model.Pot) error {
	return self.db.WithContext(ctx).Save(pot).Error
}

func (self *Store) SaveJettonWallet(ctx context.Context, pot *model.Pot) error {
	return self.db.WithContext(ctx).
		Model(&model.Pot{}).
		Where("id = ?", pot.Id).
		Update("jetton_wallet", pot.JettonWallet).
		Error
}

// Returns false if a row with the same hash already exists for the pot
func (self *Store) InsertTransaction(ctx context.Context, tx *model.Transaction) (inserted bool, err error) {
	res := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pot_id"}, {Name: "hash"}},
			DoNothing: true,
		}).
		Create(tx)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Rows waiting for classification, oldest first
func (self *Store) UnprocessedTransactions(ctx context.Context, potId int64) (out []*model.Transaction, err error) {
	err = self.db.WithContext(ctx).
		Where("pot_id = ? AND state = ?", potId, model.TransactionStateUnprocessed).
		Order("time ASC, lt ASC").
		Find(&out).
		Error
	return
}

// Commits the row's classification together with the pot's aggregates and queued messages
func (self *Store) ApplyClassification(ctx context.Context, pot *model.Pot, tx *model.Transaction, messages []*model.ScheduledMessage) error {
	return self.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) (err error) {
		err = dbTx.Model(&model.Transaction{}).
			Where("id = ?", tx.Id).
			Update("state", tx.State).
			Error
		if err != nil {
			return
		}

		err = dbTx.Save(pot).Error
		if err != nil {
			return
		}

		if len(messages) == 0 {
			return
		}
		return dbTx.Create(&messages).Error
	})
}

// Decimals of the jetton, the configured default for unknown ones
func (self *Store) JettonDecimals(ctx context.Context, master string) (decimals uint8, err error) {
	cached, found := self.jettons.Get(master)
	if found {
		return cached.(uint8), nil
	}

	var jetton model.Jetton
	err = self.db.WithContext(ctx).
		Where("address = ?", master).
		Take(&jetton).
		Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		self.log.WithField("jetton", master).Warn("Unknown jetton, using default decimals")
		decimals = self.config.Indexer.DefaultDecimals
	case err != nil:
		return
	default:
		decimals = jetton.Decimals
	}

	self.jettons.SetDefault(master, decimals)
	return decimals, nil
}

// 0 if nothing was saved yet
func (self *Store) LastSeqno(ctx context.Context) (seqno int64, err error) {
	var setting model.Setting
	err = self.db.WithContext(ctx).
		Where("id = ?", model.SettingLastSeqno).
		Take(&setting).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil || setting.LongValue == nil {
		return
	}
	return *setting.LongValue, nil
}

func (self *Store) SaveLastSeqno(ctx context.Context, seqno int64) error {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model.Setting{
			Id:        model.SettingLastSeqno,
			LongValue: &seqno,
		}).
		Error
}
