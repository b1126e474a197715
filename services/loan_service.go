package services

import (
	"errors"
	"time"

	"bankledger/models"
	"bankledger/storage"
	"bankledger/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// LoanAction представляет решение менеджера по заявке
type LoanAction string

const (
	LoanActionApprove LoanAction = "approve"
	LoanActionDeny    LoanAction = "deny"
)

// LoanRequest представляет данные заявки на кредит
type LoanRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Reason string `json:"reason" validate:"required"`
	Amount decimal.Decimal
}

// LoanService управляет жизненным циклом заявок на кредит:
// PENDING -> APPROVED | DENIED, переходы только через DisburseLoan.
// Авторизацию менеджера выполняет внешний слой; статус заявки и
// заморозка счета перепроверяются здесь — это инварианты журнала.
type LoanService struct {
	store     storage.Store
	validator *validator.Validate
	email     *EmailService
}

// NewLoanService создает новый экземпляр LoanService.
// email может быть nil — тогда уведомления не отправляются.
func NewLoanService(store storage.Store, email *EmailService) *LoanService {
	return &LoanService{
		store:     store,
		validator: validator.New(),
		email:     email,
	}
}

// RequestLoan создает заявку на кредит в статусе PENDING
func (s *LoanService) RequestLoan(request LoanRequest) (loan *models.Loan, err error) {
	start := time.Now()
	defer func() { done("request_loan", start, err) }()

	if err = s.validator.Struct(request); err != nil {
		return nil, formatValidationErrors(err)
	}
	if err = checkAmount(request.Amount); err != nil {
		return nil, err
	}

	loan = &models.Loan{
		UserID:      request.UserID,
		Amount:      request.Amount,
		Reason:      request.Reason,
		Status:      models.LoanStatusPending,
		RequestedAt: time.Now(),
	}

	err = s.store.RunAtomic(func(st storage.Store) error {
		return st.CreateLoan(loan)
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// PendingLoans возвращает необработанные заявки от старых к новым
func (s *LoanService) PendingLoans() ([]models.Loan, error) {
	return s.store.PendingLoans()
}

// LoansByUser возвращает заявки пользователя
func (s *LoanService) LoansByUser(userID uint) ([]models.Loan, error) {
	return s.store.LoansByUser(userID)
}

// DisburseLoan обрабатывает заявку ровно один раз: approve зачисляет
// сумму на счет заявителя и добавляет DEPOSIT-транзакцию, deny баланс
// не меняет. Обе ветви атомарны со сменой статуса и отметкой времени
// обработки. Замороженный счет заявителя блокирует обработку, заявка
// остается в PENDING — менеджер сначала размораживает счет.
func (s *LoanService) DisburseLoan(loanID uint, action LoanAction) (loan *models.Loan, err error) {
	start := time.Now()
	operation := "approve_loan"
	if action == LoanActionDeny {
		operation = "deny_loan"
	}
	defer func() { done(operation, start, err) }()

	if action != LoanActionApprove && action != LoanActionDeny {
		return nil, errors.New("действие должно быть одним из: approve deny")
	}

	var account *models.Account
	err = s.store.RunAtomic(func(st storage.Store) error {
		l, err := st.GetLoanByID(loanID)
		if err != nil {
			return err
		}

		// Терминальные статусы окончательны
		if l.Status != models.LoanStatusPending {
			return models.ErrLoanAlreadyProcessed
		}

		acc, err := st.GetAccountByOwner(l.UserID)
		if err != nil {
			return err
		}
		if acc.IsFrozen {
			return models.ErrAccountFrozen
		}

		now := time.Now()
		l.ProcessedAt = &now

		if action == LoanActionApprove {
			l.Status = models.LoanStatusApproved

			// Зачисляем сумму кредита на счет заявителя
			acc.Balance = acc.Balance.Add(l.Amount)
			if err := st.SaveAccount(acc); err != nil {
				return err
			}

			transaction := &models.Transaction{
				AccountID:   acc.ID,
				Type:        models.TransactionTypeDeposit,
				Amount:      l.Amount,
				Description: "Loan approved: " + truncateReason(l.Reason, 50),
				CreatedAt:   now,
			}
			if err := st.AppendTransaction(transaction); err != nil {
				return err
			}
		} else {
			l.Status = models.LoanStatusDenied
		}

		if err := st.SaveLoan(l); err != nil {
			return err
		}

		loan = l
		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(loan, account)
	return loan, nil
}

// truncateReason обрезает причину до limit символов для описания транзакции
func truncateReason(reason string, limit int) string {
	runes := []rune(reason)
	if len(runes) <= limit {
		return reason
	}
	return string(runes[:limit])
}

// notifyDecision отправляет уведомление о решении; ошибка отправки
// логируется и не влияет на уже зафиксированную операцию
func (s *LoanService) notifyDecision(loan *models.Loan, account *models.Account) {
	if s.email == nil || loan == nil || account == nil || account.Owner.Email == "" {
		return
	}
	approved := loan.Status == models.LoanStatusApproved
	if err := s.email.SendLoanDecisionNotification(account.Owner.Email, loan.ID, loan.Amount, approved); err != nil {
		utils.LogError("Ошибка отправки уведомления: %v", err)
	}
}
