package models

import (
	"time"
)

// User представляет владельца счета. Аутентификация и одобрение
// выполняются внешним слоем; движку пользователь нужен как владелец
// счета и адресат уведомлений.
type User struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	FirstName  string    `gorm:"column:first_name;not null;size:50"`
	LastName   string    `gorm:"column:last_name;not null;size:50"`
	Email      string    `gorm:"column:email;unique;not null;size:100;index"`
	IsStaff    bool      `gorm:"column:is_staff;not null;default:false"`
	IsApproved bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// FullName возвращает полное имя пользователя для описаний транзакций
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
