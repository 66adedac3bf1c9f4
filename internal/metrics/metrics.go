// internal/metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

var (
	salesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tallerpiolin_sales_total",
		Help: "Completed sales",
	})

	saleUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tallerpiolin_sale_units_total",
		Help: "Units sold across completed sales",
	})

	saleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tallerpiolin_sale_failures_total",
		Help: "Failed sales by reason",
	}, []string{"reason"})

	saleCompensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tallerpiolin_sale_compensations_total",
		Help: "Compensating sale deletions by result",
	}, []string{"result"})

	storeCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tallerpiolin_store_call_duration_seconds",
		Help:    "Remote store call latency by table, operation and outcome",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"table", "op", "outcome"})

	realtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tallerpiolin_realtime_events_total",
		Help: "Change feed events received by table and type",
	}, []string{"table", "type"})

	unreadNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tallerpiolin_notifications_unread",
		Help: "Unread notifications in the ledger cache",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tallerpiolin_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tallerpiolin_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func SaleCompleted(quantity int) {
	salesTotal.Inc()
	saleUnitsTotal.Add(float64(quantity))
}

func SaleFailed(err error) {
	saleFailures.WithLabelValues(reason(err)).Inc()
}

func SaleCompensated(ok bool) {
	result := "deleted"
	if !ok {
		result = "failed"
	}
	saleCompensations.WithLabelValues(result).Inc()
}

func ObserveStoreCall(table, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = reason(err)
	}
	storeCallDuration.WithLabelValues(table, op, outcome).Observe(time.Since(start).Seconds())
}

func RealtimeEvent(table, kind string) {
	realtimeEvents.WithLabelValues(table, kind).Inc()
}

func SetUnread(n int) {
	unreadNotifications.Set(float64(n))
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func reason(err error) string {
	var (
		ve *models.ValidationError
		ce *models.ConflictError
		nf *models.NotFoundError
		is *models.InsufficientStockError
		re *models.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "conflict"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &is):
		return "insufficient_stock"
	case errors.As(err, &re):
		return "remote"
	default:
		return "error"
	}
}
