package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType представляет тип транзакции
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// Transaction представляет запись журнала операций по счету.
// Записи только добавляются и никогда не изменяются — это аудиторский след.
// Сумма со знаком: отрицательная для списаний, положительная для зачислений.
type Transaction struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	AccountID   uint            `gorm:"column:account_id;not null;index"`
	Type        TransactionType `gorm:"column:type;not null;size:10"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Description string          `gorm:"column:description;size:255"`
	CreatedAt   time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string {
	return "transactions"
}
