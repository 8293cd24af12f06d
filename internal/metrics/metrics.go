// Package metrics registers the Prometheus instruments exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_expenses_created_total",
		Help: "Expenses committed to the ledger, by split strategy.",
	}, []string{"strategy"})

	AllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_allocation_failures_total",
		Help: "Allocation requests rejected before persistence, by error kind.",
	}, []string{"kind"})

	StatementsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitledger_statements_built_total",
		Help: "Balance sheet exports generated.",
	})

	ExpensesMirrored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitledger_expenses_mirrored_total",
		Help: "Expenses appended to the external mirror ledger.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
