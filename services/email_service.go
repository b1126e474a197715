package services

import (
	"fmt"
	"time"

	"bankledger/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendTransactionNotification отправляет уведомление об операции по счету
func (s *EmailService) SendTransactionNotification(to, accountNumber string, amount decimal.Decimal, operation string) error {
	subject := "Уведомление о транзакции"
	body := fmt.Sprintf(`
		<h2>Уведомление о транзакции</h2>
		<p>Счет: %s</p>
		<p>Тип операции: %s</p>
		<p>Сумма: %s</p>
		<p>Дата: %s</p>
	`, accountNumber, operation, amount.StringFixed(2), time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendLoanDecisionNotification отправляет уведомление о решении по заявке на кредит
func (s *EmailService) SendLoanDecisionNotification(to string, loanID uint, amount decimal.Decimal, approved bool) error {
	if approved {
		subject := "Ваша заявка на кредит одобрена"
		body := fmt.Sprintf(`
			<h2>Заявка одобрена</h2>
			<p>Заявка #%d на сумму %s одобрена, средства зачислены на ваш счет.</p>
			<p>Спасибо, что выбрали наш банк!</p>
		`, loanID, amount.StringFixed(2))
		return s.SendEmail(to, subject, body)
	}

	subject := "Ваша заявка на кредит отклонена"
	body := fmt.Sprintf(`
		<h2>Заявка отклонена</h2>
		<p>К сожалению, заявка #%d на сумму %s была отклонена.</p>
		<p>Если у вас возникнут вопросы, пожалуйста, свяжитесь с нами.</p>
	`, loanID, amount.StringFixed(2))
	return s.SendEmail(to, subject, body)
}
