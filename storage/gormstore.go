package storage

import (
	"errors"
	"fmt"

	"bankledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore реализует Store поверх GORM (PostgreSQL).
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore создает новый экземпляр GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// storageErr оборачивает сбой хранилища в ErrStorageUnavailable
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
}

// CreateAccount сохраняет новый счет
func (s *GormStore) CreateAccount(account *models.Account) error {
	if err := s.db.Create(account).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// GetAccountByOwner возвращает счет по владельцу.
// Внутри единицы работы строка счета блокируется до фиксации.
func (s *GormStore) GetAccountByOwner(ownerID uint) (*models.Account, error) {
	var account models.Account
	q := s.db.Preload("Owner")
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "accounts"}})
	}
	if err := q.Where("owner_id = ?", ownerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAccountNotFound
		}
		return nil, storageErr(err)
	}
	return &account, nil
}

// GetAccountByNumber возвращает счет по номеру
func (s *GormStore) GetAccountByNumber(number string) (*models.Account, error) {
	var account models.Account
	q := s.db.Preload("Owner")
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "accounts"}})
	}
	if err := q.Where("number = ?", number).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAccountNotFound
		}
		return nil, storageErr(err)
	}
	return &account, nil
}

// SaveAccount сохраняет измененные поля счета
func (s *GormStore) SaveAccount(account *models.Account) error {
	if err := s.db.Save(account).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// AppendTransaction добавляет запись в журнал операций
func (s *GormStore) AppendTransaction(transaction *models.Transaction) error {
	if err := s.db.Create(transaction).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// TransactionsByAccount возвращает транзакции счета от новых к старым
func (s *GormStore) TransactionsByAccount(accountID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, storageErr(err)
	}
	return transactions, nil
}

// CreateLoan сохраняет новую заявку на кредит
func (s *GormStore) CreateLoan(loan *models.Loan) error {
	if err := s.db.Create(loan).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// GetLoanByID возвращает заявку по ID
func (s *GormStore) GetLoanByID(id uint) (*models.Loan, error) {
	var loan models.Loan
	q := s.db.Preload("User")
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "loans"}})
	}
	if err := q.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLoanNotFound
		}
		return nil, storageErr(err)
	}
	return &loan, nil
}

// SaveLoan сохраняет измененные поля заявки
func (s *GormStore) SaveLoan(loan *models.Loan) error {
	if err := s.db.Save(loan).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// PendingLoans возвращает необработанные заявки от старых к новым
func (s *GormStore) PendingLoans() ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.db.Preload("User").
		Where("status = ?", models.LoanStatusPending).
		Order("requested_at ASC").
		Find(&loans).Error; err != nil {
		return nil, storageErr(err)
	}
	return loans, nil
}

// LoansByUser возвращает все заявки пользователя
func (s *GormStore) LoansByUser(userID uint) ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.db.Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&loans).Error; err != nil {
		return nil, storageErr(err)
	}
	return loans, nil
}

// RunAtomic выполняет fn внутри транзакции базы данных.
// Внутри fn работает Store, привязанный к транзакции: чтения счетов
// берут блокировку FOR UPDATE, поэтому конкурентные операции над одним
// счетом сериализуются, а операции над разными счетами идут независимо.
func (s *GormStore) RunAtomic(fn func(Store) error) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
	if err == nil {
		return nil
	}
	// Ошибки бизнес-правил проходят как есть, сбои фиксации оборачиваются
	if errors.Is(err, models.ErrStorageUnavailable) || isDomainErr(err) {
		return err
	}
	return storageErr(err)
}

func isDomainErr(err error) bool {
	for _, domainErr := range []error{
		models.ErrAccountNotFound, models.ErrAccountExists, models.ErrAccountFrozen,
		models.ErrInsufficientFunds, models.ErrSelfTransfer,
		models.ErrRecipientNotFound, models.ErrRecipientFrozen,
		models.ErrLoanNotFound, models.ErrLoanAlreadyProcessed,
		models.ErrInvalidAmount,
	} {
		if errors.Is(err, domainErr) {
			return true
		}
	}
	return false
}
