package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
)

type Orders interface {
	CreateOrder(ctx context.Context, buyerID, idempotencyKey string, checkout []domain.CheckoutItem) (*domain.OrderDetails, error)
	VerifyDelivery(ctx context.Context, orderID, itemID, sellerID, code string) (*domain.DeliveryResult, error)
}

type OrderViews interface {
	PendingOrders(ctx context.Context, buyerID string) ([]domain.OrderDetails, error)
	BoughtOrders(ctx context.Context, buyerID string) ([]domain.OrderDetails, error)
	SoldOrders(ctx context.Context, sellerID string) ([]domain.OrderDetails, error)
	PendingDeliveries(ctx context.Context, sellerID string) ([]domain.OrderDetails, error)
}

type Cart interface {
	Add(ctx context.Context, userID, itemID string) error
	Remove(ctx context.Context, userID, itemID string) error
	ListAvailable(ctx context.Context, userID string) ([]domain.Item, error)
	Search(ctx context.Context, userID string) ([]domain.Item, error)
}

// Dependencies are shared by the HTTP and gRPC transports.
type Dependencies struct {
	Orders  Orders
	Views   OrderViews
	Cart    Cart
	Metrics *Metrics
}

type HTTPHandler struct {
	log      *slog.Logger
	deps     Dependencies
	gatherer prometheus.Gatherer
	timeout  time.Duration
	tracer   trace.Tracer
}

func NewHTTPHandler(log *slog.Logger, deps Dependencies, gatherer prometheus.Gatherer, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{
		log:      log,
		deps:     deps,
		gatherer: gatherer,
		timeout:  timeout,
		tracer:   otel.Tracer("marketplace-http"),
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.deps.Metrics.Middleware)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/items/search", h.searchItems)

		r.Get("/cart", h.listCart)
		r.Post("/cart/items", h.addCartItem)
		r.Delete("/cart/items/{itemID}", h.removeCartItem)

		r.Post("/orders", h.createOrder)
		r.Get("/orders/pending", h.pendingOrders)
		r.Get("/orders/bought", h.boughtOrders)
		r.Get("/orders/sold", h.soldOrders)
		r.Get("/orders/pending-deliveries", h.pendingDeliveries)
		r.Post("/orders/{orderID}/items/{itemID}/verify", h.verifyDelivery)
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req CheckoutRequest
	if !h.decode(w, r, span, &req) {
		return
	}
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		req.IdempotencyKey = key
	}
	if err := req.Validate(); err != nil {
		h.fail(w, span, err)
		return
	}

	order, err := h.deps.Orders.CreateOrder(ctx, userFrom(ctx), req.IdempotencyKey, req.checkout())
	h.deps.Metrics.checkout(err)
	if err != nil {
		h.fail(w, span, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) verifyDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyDelivery")
	defer span.End()

	var req VerifyRequest
	if !h.decode(w, r, span, &req) {
		return
	}
	req.OrderID = chi.URLParam(r, "orderID")
	req.ItemID = chi.URLParam(r, "itemID")
	if err := req.Validate(); err != nil {
		h.fail(w, span, err)
		return
	}

	res, err := h.deps.Orders.VerifyDelivery(ctx, req.OrderID, req.ItemID, userFrom(ctx), req.OTP)
	h.deps.Metrics.delivery(err)
	if err != nil {
		h.fail(w, span, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) pendingOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, "PendingOrders", h.deps.Views.PendingOrders)
}

func (h *HTTPHandler) boughtOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, "BoughtOrders", h.deps.Views.BoughtOrders)
}

func (h *HTTPHandler) soldOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, "SoldOrders", h.deps.Views.SoldOrders)
}

func (h *HTTPHandler) pendingDeliveries(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, "PendingDeliveries", h.deps.Views.PendingDeliveries)
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request, name string, view func(context.Context, string) ([]domain.OrderDetails, error)) {
	ctx, span := h.tracer.Start(r.Context(), name)
	defer span.End()

	orders, err := view(ctx, userFrom(ctx))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersResponse(orders))
}

func (h *HTTPHandler) searchItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SearchItems")
	defer span.End()

	items, err := h.deps.Cart.Search(ctx, userFrom(ctx))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (h *HTTPHandler) listCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCart")
	defer span.End()

	items, err := h.deps.Cart.ListAvailable(ctx, userFrom(ctx))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (h *HTTPHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddCartItem")
	defer span.End()

	var req CartItemRequest
	if !h.decode(w, r, span, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, span, err)
		return
	}

	if err := h.deps.Cart.Add(ctx, userFrom(ctx), req.ItemID); err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *HTTPHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCartItem")
	defer span.End()

	if err := h.deps.Cart.Remove(ctx, userFrom(ctx), chi.URLParam(r, "itemID")); err != nil {
		h.fail(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, span trace.Span, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.fail(w, span, fmt.Errorf("%w: invalid request body", ErrInvalidRequest))
		return false
	}
	return true
}

func (h *HTTPHandler) fail(w http.ResponseWriter, span trace.Span, err error) {
	kind := classify(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, kind.String())
	if kind == kindInternal {
		h.log.Error("request failed", "err", err)
	}
	writeError(w, kind.httpStatus(), publicMessage(err, kind))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
