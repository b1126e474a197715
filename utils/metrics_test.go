package utils

import (
	"errors"
	"testing"
	"time"
)

func TestMetricsRecordOperation(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	start := time.Now()
	m.RecordOperation("deposit", start, nil)
	m.RecordOperation("transfer", start, nil)
	m.RecordOperation("withdraw", start, errors.New("недостаточно средств на счете"))

	snapshot := m.GetMetricsSnapshot()
	if snapshot["total_operations"].(int64) != 3 {
		t.Fatalf("total_operations=%v want=3", snapshot["total_operations"])
	}
	if snapshot["failed_operations"].(int64) != 1 {
		t.Fatalf("failed_operations=%v want=1", snapshot["failed_operations"])
	}
	if snapshot["deposits"].(int64) != 1 {
		t.Fatalf("deposits=%v want=1", snapshot["deposits"])
	}
	if snapshot["transfers"].(int64) != 1 {
		t.Fatalf("transfers=%v want=1", snapshot["transfers"])
	}
	// Проваленная операция не увеличивает счетчик своего типа
	if snapshot["withdrawals"].(int64) != 0 {
		t.Fatalf("withdrawals=%v want=0", snapshot["withdrawals"])
	}

	errorTypes := snapshot["error_types"].(map[string]int64)
	if errorTypes["недостаточно средств на счете"] != 1 {
		t.Fatalf("error_types=%v", errorTypes)
	}
}

func TestMetricsReset(t *testing.T) {
	m := GetMetrics()
	m.RecordOperation("deposit", time.Now(), nil)
	m.ResetMetrics()

	snapshot := m.GetMetricsSnapshot()
	if snapshot["total_operations"].(int64) != 0 {
		t.Fatalf("total_operations=%v want=0", snapshot["total_operations"])
	}
	if snapshot["deposits"].(int64) != 0 {
		t.Fatalf("deposits=%v want=0", snapshot["deposits"])
	}
}
