package services

import (
	"errors"
	"strings"
	"testing"

	"bankledger/models"
	"bankledger/storage"

	"github.com/shopspring/decimal"
)

// newTestLoans создает сервисы поверх хранилища в памяти
// с одним заявителем и его счетом
func newTestLoans(t *testing.T) (*LoanService, *LedgerService, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	store.SeedUser(models.User{ID: 1, FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com"})
	if err := store.CreateAccount(&models.Account{Number: "1111111111", OwnerID: 1, Balance: decimal.Zero}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return NewLoanService(store, nil), NewLedgerService(store, nil), store
}

func TestRequestLoan(t *testing.T) {
	loans, _, store := newTestLoans(t)

	loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("500.00"), Reason: "home repairs"})
	if err != nil {
		t.Fatalf("RequestLoan: %v", err)
	}
	if loan.Status != models.LoanStatusPending {
		t.Fatalf("status=%s want=PENDING", loan.Status)
	}
	if loan.ProcessedAt != nil {
		t.Fatal("processed_at должен быть nil до обработки")
	}

	pending, err := store.PendingLoans()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != loan.ID {
		t.Fatalf("pending=%d want=1", len(pending))
	}
}

func TestRequestLoanValidation(t *testing.T) {
	loans, _, _ := newTestLoans(t)

	if _, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("-5"), Reason: "x"}); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("10.001"), Reason: "x"}); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	// Причина обязательна
	if _, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("10.00")}); err == nil {
		t.Fatal("заявка без причины должна отклоняться")
	}
}

// TestDisburseLoanApprove соответствует сценарию: заявка на 500.00,
// баланс заявителя 20.00 -> баланс 520.00, статус APPROVED,
// одна DEPOSIT-транзакция на 500.00
func TestDisburseLoanApprove(t *testing.T) {
	loans, _, store := newTestLoans(t)
	setBalance(t, store, 1, "20.00")

	loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("500.00"), Reason: "home repairs"})
	if err != nil {
		t.Fatal(err)
	}

	processed, err := loans.DisburseLoan(loan.ID, LoanActionApprove)
	if err != nil {
		t.Fatalf("DisburseLoan: %v", err)
	}
	if processed.Status != models.LoanStatusApproved {
		t.Fatalf("status=%s want=APPROVED", processed.Status)
	}
	if processed.ProcessedAt == nil {
		t.Fatal("processed_at должен быть установлен")
	}

	if got := balance(t, store, 1); !got.Equal(amount("520.00")) {
		t.Fatalf("balance=%s want=520.00", got)
	}

	acc, _ := store.GetAccountByOwner(1)
	txs, _ := store.TransactionsByAccount(acc.ID)
	if len(txs) != 1 {
		t.Fatalf("transactions=%d want=1", len(txs))
	}
	if txs[0].Type != models.TransactionTypeDeposit || !txs[0].Amount.Equal(amount("500.00")) {
		t.Fatalf("got %s %s, want DEPOSIT +500.00", txs[0].Type, txs[0].Amount)
	}
	if !strings.HasPrefix(txs[0].Description, "Loan approved:") {
		t.Fatalf("description=%q", txs[0].Description)
	}
}

// TestDisburseLoanFrozenAccount соответствует сценарию: счет заявителя
// заморожен -> ErrAccountFrozen, заявка остается PENDING, баланс не меняется
func TestDisburseLoanFrozenAccount(t *testing.T) {
	loans, ledger, store := newTestLoans(t)
	setBalance(t, store, 1, "20.00")

	loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("500.00"), Reason: "home repairs"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.ToggleFreeze("1111111111"); err != nil {
		t.Fatal(err)
	}

	_, err = loans.DisburseLoan(loan.ID, LoanActionApprove)
	if !errors.Is(err, models.ErrAccountFrozen) {
		t.Fatalf("want ErrAccountFrozen, got %v", err)
	}

	stored, _ := store.GetLoanByID(loan.ID)
	if stored.Status != models.LoanStatusPending {
		t.Fatalf("status=%s, заявка должна остаться PENDING", stored.Status)
	}
	if stored.ProcessedAt != nil {
		t.Fatal("processed_at не должен быть установлен")
	}
	if got := balance(t, store, 1); !got.Equal(amount("20.00")) {
		t.Fatalf("balance=%s want=20.00", got)
	}

	// После разморозки та же заявка обрабатывается
	if _, err := ledger.ToggleFreeze("1111111111"); err != nil {
		t.Fatal(err)
	}
	if _, err := loans.DisburseLoan(loan.ID, LoanActionApprove); err != nil {
		t.Fatalf("DisburseLoan после разморозки: %v", err)
	}
	if got := balance(t, store, 1); !got.Equal(amount("520.00")) {
		t.Fatalf("balance=%s want=520.00", got)
	}
}

func TestDisburseLoanDeny(t *testing.T) {
	loans, _, store := newTestLoans(t)
	setBalance(t, store, 1, "20.00")

	loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("500.00"), Reason: "home repairs"})
	if err != nil {
		t.Fatal(err)
	}

	processed, err := loans.DisburseLoan(loan.ID, LoanActionDeny)
	if err != nil {
		t.Fatalf("DisburseLoan: %v", err)
	}
	if processed.Status != models.LoanStatusDenied {
		t.Fatalf("status=%s want=DENIED", processed.Status)
	}
	if processed.ProcessedAt == nil {
		t.Fatal("processed_at должен быть установлен")
	}

	// Отказ не меняет баланс и не пишет в журнал
	if got := balance(t, store, 1); !got.Equal(amount("20.00")) {
		t.Fatalf("balance=%s want=20.00", got)
	}
	acc, _ := store.GetAccountByOwner(1)
	txs, _ := store.TransactionsByAccount(acc.ID)
	if len(txs) != 0 {
		t.Fatalf("transactions=%d want=0", len(txs))
	}
}

// TestLoanTerminality: терминальные статусы окончательны для обеих
// попыток повторной обработки
func TestLoanTerminality(t *testing.T) {
	for _, first := range []LoanAction{LoanActionApprove, LoanActionDeny} {
		loans, _, store := newTestLoans(t)
		setBalance(t, store, 1, "20.00")

		loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("100.00"), Reason: "terminality"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := loans.DisburseLoan(loan.ID, first); err != nil {
			t.Fatalf("DisburseLoan(%s): %v", first, err)
		}
		balanceAfter := balance(t, store, 1)

		for _, retry := range []LoanAction{LoanActionApprove, LoanActionDeny} {
			if _, err := loans.DisburseLoan(loan.ID, retry); !errors.Is(err, models.ErrLoanAlreadyProcessed) {
				t.Fatalf("повтор %s после %s: want ErrLoanAlreadyProcessed, got %v", retry, first, err)
			}
		}

		// Повторные попытки не меняют баланс
		if got := balance(t, store, 1); !got.Equal(balanceAfter) {
			t.Fatalf("balance=%s want=%s", got, balanceAfter)
		}
	}
}

func TestDisburseLoanUnknownAction(t *testing.T) {
	loans, _, _ := newTestLoans(t)

	loan, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("100.00"), Reason: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loans.DisburseLoan(loan.ID, LoanAction("cancel")); err == nil {
		t.Fatal("неизвестное действие должно отклоняться")
	}
	// Заявка не тронута
	stored, _ := loans.store.GetLoanByID(loan.ID)
	if stored.Status != models.LoanStatusPending {
		t.Fatalf("status=%s want=PENDING", stored.Status)
	}
}

func TestDisburseLoanNotFound(t *testing.T) {
	loans, _, _ := newTestLoans(t)
	if _, err := loans.DisburseLoan(42, LoanActionApprove); !errors.Is(err, models.ErrLoanNotFound) {
		t.Fatalf("want ErrLoanNotFound, got %v", err)
	}
}

// TestDisburseLoanWithoutAccount: у заявителя нет счета
func TestDisburseLoanWithoutAccount(t *testing.T) {
	store := storage.NewMemStore()
	store.SeedUser(models.User{ID: 3, FirstName: "No", LastName: "Account", Email: "no@example.com"})
	loans := NewLoanService(store, nil)

	loan, err := loans.RequestLoan(LoanRequest{UserID: 3, Amount: amount("100.00"), Reason: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loans.DisburseLoan(loan.ID, LoanActionApprove); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}

	// Заявка остается PENDING
	stored, _ := store.GetLoanByID(loan.ID)
	if stored.Status != models.LoanStatusPending {
		t.Fatalf("status=%s want=PENDING", stored.Status)
	}
}

func TestPendingLoansOrdering(t *testing.T) {
	loans, _, _ := newTestLoans(t)

	first, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("10.00"), Reason: "first"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := loans.RequestLoan(LoanRequest{UserID: 1, Amount: amount("20.00"), Reason: "second"})
	if err != nil {
		t.Fatal(err)
	}

	pending, err := loans.PendingLoans()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending=%d want=2", len(pending))
	}
	// Очередь менеджера: от старых заявок к новым
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("порядок заявок: %d, %d", pending[0].ID, pending[1].ID)
	}
}

func TestTruncateReason(t *testing.T) {
	long := strings.Repeat("a", 80)
	if got := truncateReason(long, 50); len(got) != 50 {
		t.Fatalf("len=%d want=50", len(got))
	}
	if got := truncateReason("short", 50); got != "short" {
		t.Fatalf("got=%q", got)
	}
}
