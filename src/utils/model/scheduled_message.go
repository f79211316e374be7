package model

import "time"

type ScheduledMessageType int

const (
	ScheduledMessageTypeUnknown                 ScheduledMessageType = 0
	ScheduledMessageTypeReferralRichMessage     ScheduledMessageType = 1
	ScheduledMessageTypePotStarted              ScheduledMessageType = 20
	ScheduledMessageTypePotTransactionAccepted  ScheduledMessageType = 21
	ScheduledMessageTypePotTransactionDeclined  ScheduledMessageType = 22
	ScheduledMessageTypePotEndedUserIsNotWinner ScheduledMessageType = 31
	ScheduledMessageTypePotEndedUserIsWinner    ScheduledMessageType = 32
)

// Notification waiting for the message dispatcher
type ScheduledMessage struct {
	Id     int64                `gorm:"primaryKey;autoIncrement"`
	PotId  int64                `gorm:"not null;index"`
	Type   ScheduledMessageType `gorm:"not null"`
	UserId *int64

	Created time.Time `gorm:"autoCreateTime"`
}

func (ScheduledMessage) TableName() string {
	return "scheduled_messages"
}

func NewScheduledMessage(potId int64, t ScheduledMessageType, userId *int64) *ScheduledMessage {
	return &ScheduledMessage{
		PotId:  potId,
		Type:   t,
		UserId: userId,
	}
}
