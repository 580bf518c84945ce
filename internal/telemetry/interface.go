package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot is one recorded evaluation of the monitored signal
type Snapshot struct {
	Timestamp    time.Time
	Signal       SignalMetrics
	Tolerance    ToleranceMetrics
	OutputStates OutputMetrics
}

// Domain value objects
type SignalMetrics struct {
	PeriodUs     int
	HighUs       int
	DutyPermille int
	FoldedDuty   int
}

type ToleranceMetrics struct {
	DutyErrors   int
	PeriodErrors int
}

type OutputMetrics struct {
	PrimaryActive bool
	ErrorActive   bool
}
