package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	QueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_queue_size",
		Help: "The number of intents currently in the processing queue",
	})

	StepsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_steps_processed_total",
		Help: "The total number of queue steps by resulting status",
	}, []string{"status"})

	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_step_duration_seconds",
		Help:    "Time taken by a single queue step",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	SwapAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_swap_attempts_total",
		Help: "The total number of swap attempts sent to the aggregator",
	})

	SwapFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_swap_failures_total",
		Help: "The total number of failed swap attempts",
	})

	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_evictions_total",
		Help: "The number of intents evicted after exhausting swap retries",
	})

	WithdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_withdrawals_total",
		Help: "The total number of confirmed withdrawAsset transactions",
	})

	DepositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_deposits_total",
		Help: "The total number of confirmed depositAsset transactions",
	})

	IntentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_intents_completed_total",
		Help: "The total number of intents that reached ProceedsReceived",
	})

	IntentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_intents_rejected_total",
		Help: "The total number of intents rejected for an unsupported intent type",
	})

	ReceiptWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_receipt_wait_seconds",
		Help:    "Time spent waiting for transaction receipts",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	GasPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_gas_price_gwei",
		Help: "Current gas price in gwei",
	})

	FailedSwapRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_failed_swap_rows",
		Help: "The number of rows currently in the failed swaps store",
	})

	IntentsAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_intents_admitted_total",
		Help: "The total number of intents admitted to the queue by source",
	}, []string{"source"})

	TokenBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "solver_token_balance",
		Help: "Solver token balances in token units",
	}, []string{"symbol"})
)
