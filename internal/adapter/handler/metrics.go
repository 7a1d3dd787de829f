package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	Requests   *prometheus.CounterVec
	LatencyMS  *prometheus.HistogramVec
	Checkouts  *prometheus.CounterVec
	Deliveries *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "requests_total",
		Help:      "Total number of HTTP and gRPC requests.",
	}, []string{"transport", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "request_duration_ms",
		Help:      "Request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"transport", "route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "delivery_verifications_total",
		Help:      "Delivery code redemptions by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(requests, latency, checkouts, deliveries)
	return &Metrics{Requests: requests, LatencyMS: latency, Checkouts: checkouts, Deliveries: deliveries}
}

// Middleware records every HTTP request under its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.Requests.WithLabelValues("http", route, strconv.Itoa(code)).Inc()
		m.LatencyMS.WithLabelValues("http", route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Requests.WithLabelValues("grpc", info.FullMethod, status.Code(err).String()).Inc()
		m.LatencyMS.WithLabelValues("grpc", info.FullMethod).Observe(float64(time.Since(start).Milliseconds()))
		return resp, err
	}
}

func (m *Metrics) checkout(err error) {
	m.Checkouts.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) delivery(err error) {
	m.Deliveries.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return classify(err).String()
}
