package models

import "errors"

// Ошибки бизнес-правил. Каждая отказанная проверка возвращает конкретную
// ошибку, чтобы вызывающий слой мог показать точное сообщение.
// Ошибки бизнес-правил не повторяются автоматически — нужны исправленные
// данные или изменение состояния (например, разморозка счета).
var (
	ErrAccountNotFound      = errors.New("банковский счет не найден")
	ErrAccountExists        = errors.New("у пользователя уже есть банковский счет")
	ErrAccountFrozen        = errors.New("счет заморожен")
	ErrInsufficientFunds    = errors.New("недостаточно средств на счете")
	ErrSelfTransfer         = errors.New("нельзя перевести средства на тот же счет")
	ErrRecipientNotFound    = errors.New("счет получателя не найден")
	ErrRecipientFrozen      = errors.New("счет получателя заморожен")
	ErrLoanNotFound         = errors.New("заявка на кредит не найдена")
	ErrLoanAlreadyProcessed = errors.New("заявка на кредит уже обработана")
	ErrInvalidAmount        = errors.New("сумма должна быть больше 0 и иметь не более 2 знаков после запятой")
)

// ErrStorageUnavailable помечает временные сбои хранилища (соединение,
// конфликт фиксации). В отличие от ошибок бизнес-правил такие ошибки
// можно повторить.
var ErrStorageUnavailable = errors.New("хранилище недоступно")
