package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus представляет статус заявки на кредит
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "PENDING"
	LoanStatusApproved LoanStatus = "APPROVED"
	LoanStatusDenied   LoanStatus = "DENIED"
)

// Loan представляет заявку на кредит.
// Заявка создается в статусе PENDING и ровно один раз переходит
// в APPROVED или DENIED; терминальные статусы окончательны.
type Loan struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	UserID      uint            `gorm:"column:user_id;not null;index"`
	User        User            `gorm:"foreignKey:UserID;references:ID"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Reason      string          `gorm:"column:reason;type:text;not null"`
	Status      LoanStatus      `gorm:"column:status;type:varchar(10);not null;default:'PENDING'"`
	RequestedAt time.Time       `gorm:"column:requested_at;default:CURRENT_TIMESTAMP"`
	ProcessedAt *time.Time      `gorm:"column:processed_at"` // nil, пока заявка не обработана
}

func (Loan) TableName() string {
	return "loans"
}
