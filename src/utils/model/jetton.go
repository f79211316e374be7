package model

type Jetton struct {
	Id int64 `gorm:"primaryKey;autoIncrement"`

	// Master contract, bounceable form
	Address  string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	Symbol   string `gorm:"not null"`
	Decimals uint8  `gorm:"not null"`
}

func (Jetton) TableName() string {
	return "jettons"
}
