package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarry_redis_errors_total",
		Help: "Redis command errors by command.",
	}, []string{"command"})

	// VotesApplied counts committed vote mutations by direction and whether
	// the vote ended up active or retracted.
	VotesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarry_votes_applied_total",
		Help: "Committed vote mutations by direction and result.",
	}, []string{"direction", "result"})

	// CoinsCredited totals wallet credits by earning source.
	CoinsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarry_coins_credited_total",
		Help: "Wallet coins credited by source.",
	}, []string{"source"})

	// CreditFailures counts credit steps skipped because the target user was
	// missing when the surrounding mutation committed.
	CreditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_credit_dependency_missing_total",
		Help: "Wallet credit steps skipped due to a missing user.",
	})
)

var (
	promOnce sync.Once
	promInst *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service name.
// The middleware registers on the default registry, so it is created once
// per process regardless of how many servers are constructed.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInst = fiberprometheus.New(serviceName)
	})
	return promInst
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
