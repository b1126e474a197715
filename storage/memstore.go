package storage

import (
	"errors"
	"sync"
	"time"

	"bankledger/models"
)

// MemStore реализует Store в памяти: для тестов и встраивания без базы
// данных. Один мьютекс сериализует все операции, а RunAtomic откатывает
// изменения восстановлением снимка — частичное применение невозможно.
type MemStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	accounts     map[uint]*models.Account
	byNumber     map[string]uint
	byOwner      map[uint]uint
	transactions []models.Transaction
	loans        map[uint]*models.Loan
	users        map[uint]models.User

	nextAccountID uint
	nextTxID      uint
	nextLoanID    uint
}

// NewMemStore создает пустое хранилище в памяти
func NewMemStore() *MemStore {
	return &MemStore{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		accounts: make(map[uint]*models.Account),
		byNumber: make(map[string]uint),
		byOwner:  make(map[uint]uint),
		loans:    make(map[uint]*models.Loan),
		users:    make(map[uint]models.User),
	}
}

// SeedUser регистрирует пользователя, чтобы счета и заявки могли
// ссылаться на владельца (имя в описаниях переводов, email уведомлений)
func (s *MemStore) SeedUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[user.ID] = user
}

// snapshot делает глубокую копию состояния для отката
func (d *memData) snapshot() *memData {
	cp := &memData{
		accounts:      make(map[uint]*models.Account, len(d.accounts)),
		byNumber:      make(map[string]uint, len(d.byNumber)),
		byOwner:       make(map[uint]uint, len(d.byOwner)),
		transactions:  make([]models.Transaction, len(d.transactions)),
		loans:         make(map[uint]*models.Loan, len(d.loans)),
		users:         make(map[uint]models.User, len(d.users)),
		nextAccountID: d.nextAccountID,
		nextTxID:      d.nextTxID,
		nextLoanID:    d.nextLoanID,
	}
	for id, a := range d.accounts {
		acc := *a
		cp.accounts[id] = &acc
	}
	for n, id := range d.byNumber {
		cp.byNumber[n] = id
	}
	for o, id := range d.byOwner {
		cp.byOwner[o] = id
	}
	copy(cp.transactions, d.transactions)
	for id, l := range d.loans {
		loan := *l
		cp.loans[id] = &loan
	}
	for id, u := range d.users {
		cp.users[id] = u
	}
	return cp
}

func (d *memData) createAccount(account *models.Account) error {
	if _, ok := d.byNumber[account.Number]; ok {
		return storageErr(errors.New("нарушение уникальности номера счета"))
	}
	if _, ok := d.byOwner[account.OwnerID]; ok {
		return storageErr(errors.New("нарушение уникальности владельца счета"))
	}
	d.nextAccountID++
	account.ID = d.nextAccountID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	cp := *account
	d.accounts[cp.ID] = &cp
	d.byNumber[cp.Number] = cp.ID
	d.byOwner[cp.OwnerID] = cp.ID
	return nil
}

// accountCopy возвращает копию счета с заполненным владельцем,
// чтобы вызывающий не мог изменить внутреннее состояние напрямую
func (d *memData) accountCopy(id uint) *models.Account {
	cp := *d.accounts[id]
	if u, ok := d.users[cp.OwnerID]; ok {
		cp.Owner = u
	}
	return &cp
}

func (d *memData) getAccountByOwner(ownerID uint) (*models.Account, error) {
	id, ok := d.byOwner[ownerID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return d.accountCopy(id), nil
}

func (d *memData) getAccountByNumber(number string) (*models.Account, error) {
	id, ok := d.byNumber[number]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return d.accountCopy(id), nil
}

func (d *memData) saveAccount(account *models.Account) error {
	stored, ok := d.accounts[account.ID]
	if !ok {
		return models.ErrAccountNotFound
	}
	account.UpdatedAt = time.Now()
	cp := *account
	cp.Owner = models.User{}
	*stored = cp
	return nil
}

func (d *memData) appendTransaction(transaction *models.Transaction) error {
	d.nextTxID++
	transaction.ID = d.nextTxID
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	d.transactions = append(d.transactions, *transaction)
	return nil
}

func (d *memData) transactionsByAccount(accountID uint) ([]models.Transaction, error) {
	// Журнал хранится в порядке добавления; наружу отдаем от новых к старым
	var out []models.Transaction
	for i := len(d.transactions) - 1; i >= 0; i-- {
		if d.transactions[i].AccountID == accountID {
			out = append(out, d.transactions[i])
		}
	}
	return out, nil
}

func (d *memData) createLoan(loan *models.Loan) error {
	d.nextLoanID++
	loan.ID = d.nextLoanID
	if loan.RequestedAt.IsZero() {
		loan.RequestedAt = time.Now()
	}
	cp := *loan
	d.loans[cp.ID] = &cp
	return nil
}

func (d *memData) loanCopy(id uint) *models.Loan {
	cp := *d.loans[id]
	if u, ok := d.users[cp.UserID]; ok {
		cp.User = u
	}
	return &cp
}

func (d *memData) getLoanByID(id uint) (*models.Loan, error) {
	if _, ok := d.loans[id]; !ok {
		return nil, models.ErrLoanNotFound
	}
	return d.loanCopy(id), nil
}

func (d *memData) saveLoan(loan *models.Loan) error {
	stored, ok := d.loans[loan.ID]
	if !ok {
		return models.ErrLoanNotFound
	}
	cp := *loan
	cp.User = models.User{}
	*stored = cp
	return nil
}

func (d *memData) pendingLoans() ([]models.Loan, error) {
	var out []models.Loan
	// loans нумеруются по порядку создания, поэтому обход по ID
	// дает порядок от старых заявок к новым
	for id := uint(1); id <= d.nextLoanID; id++ {
		if l, ok := d.loans[id]; ok && l.Status == models.LoanStatusPending {
			out = append(out, *d.loanCopy(id))
		}
	}
	return out, nil
}

func (d *memData) loansByUser(userID uint) ([]models.Loan, error) {
	var out []models.Loan
	for id := d.nextLoanID; id >= 1; id-- {
		if l, ok := d.loans[id]; ok && l.UserID == userID {
			out = append(out, *d.loanCopy(id))
		}
	}
	return out, nil
}

// Методы Store: берут мьютекс и делегируют внутренним операциям

func (s *MemStore) CreateAccount(account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createAccount(account)
}

func (s *MemStore) GetAccountByOwner(ownerID uint) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.getAccountByOwner(ownerID)
}

func (s *MemStore) GetAccountByNumber(number string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.getAccountByNumber(number)
}

func (s *MemStore) SaveAccount(account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.saveAccount(account)
}

func (s *MemStore) AppendTransaction(transaction *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.appendTransaction(transaction)
}

func (s *MemStore) TransactionsByAccount(accountID uint) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.transactionsByAccount(accountID)
}

func (s *MemStore) CreateLoan(loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createLoan(loan)
}

func (s *MemStore) GetLoanByID(id uint) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.getLoanByID(id)
}

func (s *MemStore) SaveLoan(loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.saveLoan(loan)
}

func (s *MemStore) PendingLoans() ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.pendingLoans()
}

func (s *MemStore) LoansByUser(userID uint) ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.loansByUser(userID)
}

// RunAtomic выполняет fn под мьютексом над живым состоянием.
// Перед запуском делается снимок; любая ошибка fn восстанавливает его,
// поэтому конкурентные читатели никогда не видят частичных изменений.
func (s *MemStore) RunAtomic(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backup := s.data.snapshot()
	if err := fn(&memTx{data: s.data}); err != nil {
		s.data = backup
		return err
	}
	return nil
}

// memTx — представление Store внутри единицы работы; мьютекс уже
// удерживается RunAtomic, поэтому операции идут без блокировки
type memTx struct {
	data *memData
}

func (t *memTx) CreateAccount(account *models.Account) error { return t.data.createAccount(account) }
func (t *memTx) GetAccountByOwner(ownerID uint) (*models.Account, error) {
	return t.data.getAccountByOwner(ownerID)
}
func (t *memTx) GetAccountByNumber(number string) (*models.Account, error) {
	return t.data.getAccountByNumber(number)
}
func (t *memTx) SaveAccount(account *models.Account) error { return t.data.saveAccount(account) }
func (t *memTx) AppendTransaction(transaction *models.Transaction) error {
	return t.data.appendTransaction(transaction)
}
func (t *memTx) TransactionsByAccount(accountID uint) ([]models.Transaction, error) {
	return t.data.transactionsByAccount(accountID)
}
func (t *memTx) CreateLoan(loan *models.Loan) error        { return t.data.createLoan(loan) }
func (t *memTx) GetLoanByID(id uint) (*models.Loan, error) { return t.data.getLoanByID(id) }
func (t *memTx) SaveLoan(loan *models.Loan) error          { return t.data.saveLoan(loan) }
func (t *memTx) PendingLoans() ([]models.Loan, error)      { return t.data.pendingLoans() }
func (t *memTx) LoansByUser(userID uint) ([]models.Loan, error) {
	return t.data.loansByUser(userID)
}

// Вложенный RunAtomic уже атомарен в рамках внешней единицы работы
func (t *memTx) RunAtomic(fn func(Store) error) error { return fn(t) }
