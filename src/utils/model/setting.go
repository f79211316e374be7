package model

import "time"

const (
	// Last masterchain seqno seen by the indexer
	SettingLastSeqno = "LAST_SEQNO"
)

type Setting struct {
	Id          string `gorm:"primaryKey;type:varchar(50)"`
	StringValue *string
	LongValue   *int64
	Updated     time.Time `gorm:"autoUpdateTime"`
}

func (Setting) TableName() string {
	return "settings"
}
