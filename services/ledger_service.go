package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"bankledger/models"
	"bankledger/storage"
	"bankledger/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// TransactionRequest представляет данные для пополнения или снятия
type TransactionRequest struct {
	OwnerID uint `json:"owner_id" validate:"required"`
	Amount  decimal.Decimal
}

// TransferRequest представляет данные для перевода средств
type TransferRequest struct {
	OwnerID         uint   `json:"owner_id" validate:"required"`
	RecipientNumber string `json:"recipient_number" validate:"required,len=10,numeric"`
	Amount          decimal.Decimal
}

// LedgerService предоставляет операции движка над счетами.
// Каждая операция выполняется как одна атомарная единица работы
// хранилища; движок не держит собственных блокировок.
type LedgerService struct {
	store          storage.Store
	validator      *validator.Validate
	email          *EmailService
	numberAttempts int
	numberBackoff  time.Duration
}

// NewLedgerService создает новый экземпляр LedgerService.
// email может быть nil — тогда уведомления не отправляются.
func NewLedgerService(store storage.Store, email *EmailService) *LedgerService {
	return &LedgerService{
		store:          store,
		validator:      validator.New(),
		email:          email,
		numberAttempts: 10,
		numberBackoff:  10 * time.Millisecond,
	}
}

// SetNumberGeneration настраивает число попыток и начальную паузу
// генерации номера счета
func (s *LedgerService) SetNumberGeneration(attempts int, backoff time.Duration) {
	if attempts > 0 {
		s.numberAttempts = attempts
	}
	s.numberBackoff = backoff
}

// formatValidationErrors переводит ошибки валидатора в одно сообщение
func formatValidationErrors(err error) error {
	validationErrors := err.(validator.ValidationErrors)
	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
		case "len":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать "+e.Param()+" символов")
		case "numeric":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать только цифры")
		case "min":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
		case "oneof":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: "+e.Param())
		default:
			errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
		}
	}
	return errors.New(strings.Join(errorMessages, "; "))
}

// checkAmount проверяет знак и точность суммы до обращения к хранилищу:
// сумма строго положительна и имеет не более 2 знаков после запятой
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return models.ErrInvalidAmount
	}
	return nil
}

// done фиксирует результат операции в логах и метриках
func done(operation string, startTime time.Time, err error) {
	utils.LogOperation(operation, startTime, err)
	utils.GetMetrics().RecordOperation(operation, startTime, err)
}

// randomAccountNumber генерирует случайный 10-значный номер счета
func randomAccountNumber() string {
	var number strings.Builder
	for i := 0; i < 10; i++ {
		number.WriteString(strconv.Itoa(rand.Intn(10)))
	}
	return number.String()
}

// generateAccountNumber подбирает свободный номер счета.
// Число попыток ограничено, между попытками пауза с удвоением:
// бесконечный цикл при патологической частоте коллизий недопустим.
// Окончательную уникальность гарантирует ограничение хранилища.
func (s *LedgerService) generateAccountNumber() (string, error) {
	backoff := s.numberBackoff
	for attempt := 0; attempt < s.numberAttempts; attempt++ {
		number := randomAccountNumber()
		_, err := s.store.GetAccountByNumber(number)
		if errors.Is(err, models.ErrAccountNotFound) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
		// Номер занят: пробуем снова после паузы
		time.Sleep(backoff)
		backoff *= 2
	}
	return "", fmt.Errorf("не удалось подобрать свободный номер счета за %d попыток", s.numberAttempts)
}

// OpenAccount открывает счет для одобренного пользователя.
// Вызывается внешним слоем после одобрения клиента менеджером.
// У пользователя может быть только один счет.
func (s *LedgerService) OpenAccount(ownerID uint) (account *models.Account, err error) {
	start := time.Now()
	defer func() { done("open_account", start, err) }()

	if ownerID == 0 {
		return nil, errors.New("поле OwnerID обязательно")
	}

	// Проверяем, что счета еще нет
	if _, err := s.store.GetAccountByOwner(ownerID); err == nil {
		return nil, models.ErrAccountExists
	} else if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}

	number, err := s.generateAccountNumber()
	if err != nil {
		return nil, err
	}

	account = &models.Account{
		Number:    number,
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		IsFrozen:  false,
		CreatedAt: time.Now(),
	}

	err = s.store.RunAtomic(func(st storage.Store) error {
		return st.CreateAccount(account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Deposit пополняет счет владельца.
// Замороженный счет отклоняет операцию; нулевой баланс не ошибка.
func (s *LedgerService) Deposit(request TransactionRequest) (account *models.Account, err error) {
	start := time.Now()
	defer func() { done("deposit", start, err) }()

	if err = s.validator.Struct(request); err != nil {
		return nil, formatValidationErrors(err)
	}
	if err = checkAmount(request.Amount); err != nil {
		return nil, err
	}

	err = s.store.RunAtomic(func(st storage.Store) error {
		acc, err := st.GetAccountByOwner(request.OwnerID)
		if err != nil {
			return err
		}

		if acc.IsFrozen {
			return models.ErrAccountFrozen
		}

		// Обновляем баланс
		acc.Balance = acc.Balance.Add(request.Amount)
		if err := st.SaveAccount(acc); err != nil {
			return err
		}

		// Создаем запись о транзакции
		transaction := &models.Transaction{
			AccountID:   acc.ID,
			Type:        models.TransactionTypeDeposit,
			Amount:      request.Amount,
			Description: "Cash Deposit",
			CreatedAt:   time.Now(),
		}
		if err := st.AppendTransaction(transaction); err != nil {
			return err
		}

		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(account, request.Amount, "Пополнение")
	return account, nil
}

// Withdraw снимает средства со счета владельца.
// Заморозка проверяется раньше достаточности средств.
func (s *LedgerService) Withdraw(request TransactionRequest) (account *models.Account, err error) {
	start := time.Now()
	defer func() { done("withdraw", start, err) }()

	if err = s.validator.Struct(request); err != nil {
		return nil, formatValidationErrors(err)
	}
	if err = checkAmount(request.Amount); err != nil {
		return nil, err
	}

	err = s.store.RunAtomic(func(st storage.Store) error {
		acc, err := st.GetAccountByOwner(request.OwnerID)
		if err != nil {
			return err
		}

		if acc.IsFrozen {
			return models.ErrAccountFrozen
		}

		// Проверяем достаточность средств: баланс не может стать отрицательным
		if acc.Balance.LessThan(request.Amount) {
			return models.ErrInsufficientFunds
		}

		// Обновляем баланс
		acc.Balance = acc.Balance.Sub(request.Amount)
		if err := st.SaveAccount(acc); err != nil {
			return err
		}

		// Создаем запись о транзакции со знаком минус
		transaction := &models.Transaction{
			AccountID:   acc.ID,
			Type:        models.TransactionTypeWithdrawal,
			Amount:      request.Amount.Neg(),
			Description: "Cash Withdrawal",
			CreatedAt:   time.Now(),
		}
		if err := st.AppendTransaction(transaction); err != nil {
			return err
		}

		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(account, request.Amount.Neg(), "Снятие")
	return account, nil
}

// Transfer переводит средства на счет получателя по его номеру.
// Порядок проверок фиксирован: заморозка отправителя, достаточность
// средств, перевод самому себе, существование получателя, заморозка
// получателя. Списание, зачисление и обе записи журнала выполняются
// в одной единице работы — частичное применение невозможно.
func (s *LedgerService) Transfer(request TransferRequest) (account *models.Account, err error) {
	start := time.Now()
	defer func() { done("transfer", start, err) }()

	if err = s.validator.Struct(request); err != nil {
		return nil, formatValidationErrors(err)
	}
	if err = checkAmount(request.Amount); err != nil {
		return nil, err
	}

	var recipient *models.Account
	err = s.store.RunAtomic(func(st storage.Store) error {
		sender, err := st.GetAccountByOwner(request.OwnerID)
		if err != nil {
			return err
		}

		if sender.IsFrozen {
			return models.ErrAccountFrozen
		}
		if sender.Balance.LessThan(request.Amount) {
			return models.ErrInsufficientFunds
		}
		if sender.Number == request.RecipientNumber {
			return models.ErrSelfTransfer
		}

		rcpt, err := st.GetAccountByNumber(request.RecipientNumber)
		if err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				return models.ErrRecipientNotFound
			}
			return err
		}
		if rcpt.IsFrozen {
			return models.ErrRecipientFrozen
		}

		// Списываем средства с отправителя
		sender.Balance = sender.Balance.Sub(request.Amount)
		if err := st.SaveAccount(sender); err != nil {
			return err
		}
		outgoing := &models.Transaction{
			AccountID:   sender.ID,
			Type:        models.TransactionTypeTransfer,
			Amount:      request.Amount.Neg(),
			Description: fmt.Sprintf("Sent to %s (%s)", rcpt.Owner.FullName(), rcpt.Number),
			CreatedAt:   time.Now(),
		}
		if err := st.AppendTransaction(outgoing); err != nil {
			return err
		}

		// Зачисляем средства получателю
		rcpt.Balance = rcpt.Balance.Add(request.Amount)
		if err := st.SaveAccount(rcpt); err != nil {
			return err
		}
		incoming := &models.Transaction{
			AccountID:   rcpt.ID,
			Type:        models.TransactionTypeTransfer,
			Amount:      request.Amount,
			Description: fmt.Sprintf("Received from %s (%s)", sender.Owner.FullName(), sender.Number),
			CreatedAt:   time.Now(),
		}
		if err := st.AppendTransaction(incoming); err != nil {
			return err
		}

		account = sender
		recipient = rcpt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(account, request.Amount.Neg(), "Перевод")
	s.notify(recipient, request.Amount, "Перевод")
	return account, nil
}

// ToggleFreeze переключает заморозку счета. Вызывается менеджером;
// авторизацию выполняет внешний слой.
func (s *LedgerService) ToggleFreeze(number string) (account *models.Account, err error) {
	start := time.Now()
	defer func() { done("toggle_freeze", start, err) }()

	err = s.store.RunAtomic(func(st storage.Store) error {
		acc, err := st.GetAccountByNumber(number)
		if err != nil {
			return err
		}
		acc.IsFrozen = !acc.IsFrozen
		if err := st.SaveAccount(acc); err != nil {
			return err
		}
		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AccountByOwner возвращает снимок счета по владельцу
func (s *LedgerService) AccountByOwner(ownerID uint) (*models.Account, error) {
	return s.store.GetAccountByOwner(ownerID)
}

// AccountByNumber возвращает снимок счета по номеру
func (s *LedgerService) AccountByNumber(number string) (*models.Account, error) {
	return s.store.GetAccountByNumber(number)
}

// History возвращает транзакции владельца от новых к старым
func (s *LedgerService) History(ownerID uint) ([]models.Transaction, error) {
	account, err := s.store.GetAccountByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	return s.store.TransactionsByAccount(account.ID)
}

// notify отправляет уведомление об операции; ошибка отправки
// логируется и не влияет на уже зафиксированную операцию
func (s *LedgerService) notify(account *models.Account, amount decimal.Decimal, operation string) {
	if s.email == nil || account == nil || account.Owner.Email == "" {
		return
	}
	if err := s.email.SendTransactionNotification(account.Owner.Email, account.Number, amount, operation); err != nil {
		utils.LogError("Ошибка отправки уведомления: %v", err)
	}
}
