package storage

import (
	"bankledger/models"
)

// Store описывает контракт долговременного хранилища, от которого зависит
// движок. Реализация может быть любой реляционной или документной базой.
//
// Методы поиска возвращают доменные ошибки models.ErrAccountNotFound /
// models.ErrLoanNotFound, если записи нет; все прочие сбои оборачивают
// models.ErrStorageUnavailable.
type Store interface {
	// Счета
	CreateAccount(account *models.Account) error
	GetAccountByOwner(ownerID uint) (*models.Account, error)
	GetAccountByNumber(number string) (*models.Account, error)
	SaveAccount(account *models.Account) error

	// Транзакции: только добавление, записи никогда не изменяются
	AppendTransaction(transaction *models.Transaction) error
	// TransactionsByAccount возвращает транзакции от новых к старым
	TransactionsByAccount(accountID uint) ([]models.Transaction, error)

	// Заявки на кредит
	CreateLoan(loan *models.Loan) error
	GetLoanByID(id uint) (*models.Loan, error)
	SaveLoan(loan *models.Loan) error
	// PendingLoans возвращает необработанные заявки от старых к новым
	PendingLoans() ([]models.Loan, error)
	LoansByUser(userID uint) ([]models.Loan, error)

	// RunAtomic выполняет fn как единицу работы: все вызовы Store внутри
	// либо фиксируются вместе, либо откатываются вместе. Чтение счета
	// внутри единицы работы блокирует его строку до фиксации, поэтому
	// конкурентные операции над одним счетом сериализуются.
	RunAtomic(fn func(Store) error) error
}
