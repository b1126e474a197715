package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики операций движка
type Metrics struct {
	mu sync.RWMutex

	// Метрики операций
	TotalOperations   int64
	FailedOperations  int64
	OperationLatency  time.Duration
	AverageLatency    time.Duration
	LastOperationTime time.Time

	// Счетчики по типам операций
	Deposits        int64
	Withdrawals     int64
	Transfers       int64
	AccountsOpened  int64
	LoansRequested  int64
	LoansApproved   int64
	LoansDenied     int64
	FreezeToggles   int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordOperation записывает метрики выполненной операции
func (m *Metrics) RecordOperation(operation string, startTime time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalOperations++
	m.OperationLatency += time.Since(startTime)
	m.AverageLatency = m.OperationLatency / time.Duration(m.TotalOperations)
	m.LastOperationTime = time.Now()

	if err != nil {
		m.FailedOperations++
		m.recordError(err)
		return
	}

	switch operation {
	case "deposit":
		m.Deposits++
	case "withdraw":
		m.Withdrawals++
	case "transfer":
		m.Transfers++
	case "open_account":
		m.AccountsOpened++
	case "request_loan":
		m.LoansRequested++
	case "approve_loan":
		m.LoansApproved++
	case "deny_loan":
		m.LoansDenied++
	case "toggle_freeze":
		m.FreezeToggles++
	}
}

// recordError записывает метрики ошибки; вызывается под мьютексом
func (m *Metrics) recordError(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_operations":  m.TotalOperations,
		"failed_operations": m.FailedOperations,
		"average_latency":   m.AverageLatency,
		"deposits":          m.Deposits,
		"withdrawals":       m.Withdrawals,
		"transfers":         m.Transfers,
		"accounts_opened":   m.AccountsOpened,
		"loans_requested":   m.LoansRequested,
		"loans_approved":    m.LoansApproved,
		"loans_denied":      m.LoansDenied,
		"freeze_toggles":    m.FreezeToggles,
		"error_count":       m.ErrorCount,
		"last_error_time":   m.LastErrorTime,
		"error_types":       errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalOperations = 0
	m.FailedOperations = 0
	m.OperationLatency = 0
	m.AverageLatency = 0
	m.Deposits = 0
	m.Withdrawals = 0
	m.Transfers = 0
	m.AccountsOpened = 0
	m.LoansRequested = 0
	m.LoansApproved = 0
	m.LoansDenied = 0
	m.FreezeToggles = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
