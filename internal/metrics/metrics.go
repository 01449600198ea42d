package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

var (
	CartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by name and result.",
		},
		[]string{"operation", "result"},
	)

	CouponApplications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "coupon",
			Name:      "applications_total",
			Help:      "Coupon applications by result and rejection reason.",
		},
		[]string{"result", "reason"},
	)

	ConcurrencyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "concurrency_retries_total",
			Help:      "Cart transactions retried after a version conflict.",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "notification",
			Name:      "sent_total",
			Help:      "Notification deliveries by result.",
		},
		[]string{"result"},
	)
)

func Result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
