package app

import (
	"context"
	"time"
)

const (
	metricLoanOperations        = "loans_operations_total"
	metricLoanOperationDuration = "loans_operation_duration_seconds"

	labelOperation = "operation"
	labelOutcome   = "outcome"

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// MetricsCollector receives ledger counters and timings. Implementations must
// be safe for concurrent use.
type MetricsCollector interface {
	IncrementCounter(ctx context.Context, name string, labels map[string]string)
	RecordDuration(ctx context.Context, name string, d time.Duration, labels map[string]string)
}

type noopMetrics struct{}

func (noopMetrics) IncrementCounter(context.Context, string, map[string]string) {}

func (noopMetrics) RecordDuration(context.Context, string, time.Duration, map[string]string) {}
