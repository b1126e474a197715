package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account представляет банковский счет клиента (один счет на пользователя)
type Account struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	Number       string          `gorm:"column:number;size:10;unique;not null"`
	OwnerID      uint            `gorm:"column:owner_id;unique;not null"`
	Owner        User            `gorm:"foreignKey:OwnerID;references:ID"`
	Balance      decimal.Decimal `gorm:"column:balance;type:decimal(12,2);not null;default:0.00"`
	IsFrozen     bool            `gorm:"column:is_frozen;not null;default:false"`
	Transactions []Transaction   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string {
	return "accounts"
}
