package handler

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const ServiceName = "marketplace.v1.OrderService"

type OrderServiceServer interface {
	CreateOrder(context.Context, *CheckoutRequest) (*domain.OrderDetails, error)
	VerifyDelivery(context.Context, *VerifyRequest) (*domain.DeliveryResult, error)
	PendingOrders(context.Context, *Empty) (*OrdersResponse, error)
	BoughtOrders(context.Context, *Empty) (*OrdersResponse, error)
	SoldOrders(context.Context, *Empty) (*OrdersResponse, error)
	PendingDeliveries(context.Context, *Empty) (*OrdersResponse, error)
	AddCartItem(context.Context, *CartItemRequest) (*Empty, error)
	RemoveCartItem(context.Context, *CartItemRequest) (*Empty, error)
	ListCart(context.Context, *Empty) (*ItemsResponse, error)
	SearchItems(context.Context, *Empty) (*ItemsResponse, error)
}

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateOrder", OrderServiceServer.CreateOrder),
		unary("VerifyDelivery", OrderServiceServer.VerifyDelivery),
		unary("PendingOrders", OrderServiceServer.PendingOrders),
		unary("BoughtOrders", OrderServiceServer.BoughtOrders),
		unary("SoldOrders", OrderServiceServer.SoldOrders),
		unary("PendingDeliveries", OrderServiceServer.PendingDeliveries),
		unary("AddCartItem", OrderServiceServer.AddCartItem),
		unary("RemoveCartItem", OrderServiceServer.RemoveCartItem),
		unary("ListCart", OrderServiceServer.ListCart),
		unary("SearchItems", OrderServiceServer.SearchItems),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(OrderServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

type GRPCHandler struct {
	log    *slog.Logger
	deps   Dependencies
	tracer trace.Tracer
}

func NewGRPCHandler(log *slog.Logger, deps Dependencies) *GRPCHandler {
	return &GRPCHandler{log: log, deps: deps, tracer: otel.Tracer("marketplace-grpc")}
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *CheckoutRequest) (*domain.OrderDetails, error) {
	ctx, span := h.tracer.Start(ctx, "CreateOrder")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, h.status(span, err)
	}
	order, err := h.deps.Orders.CreateOrder(ctx, grpcUser(ctx), req.IdempotencyKey, req.checkout())
	h.deps.Metrics.checkout(err)
	if err != nil {
		return nil, h.status(span, err)
	}
	return order, nil
}

func (h *GRPCHandler) VerifyDelivery(ctx context.Context, req *VerifyRequest) (*domain.DeliveryResult, error) {
	ctx, span := h.tracer.Start(ctx, "VerifyDelivery")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, h.status(span, err)
	}
	res, err := h.deps.Orders.VerifyDelivery(ctx, req.OrderID, req.ItemID, grpcUser(ctx), req.OTP)
	h.deps.Metrics.delivery(err)
	if err != nil {
		return nil, h.status(span, err)
	}
	return res, nil
}

func (h *GRPCHandler) PendingOrders(ctx context.Context, _ *Empty) (*OrdersResponse, error) {
	return h.listOrders(ctx, "PendingOrders", h.deps.Views.PendingOrders)
}

func (h *GRPCHandler) BoughtOrders(ctx context.Context, _ *Empty) (*OrdersResponse, error) {
	return h.listOrders(ctx, "BoughtOrders", h.deps.Views.BoughtOrders)
}

func (h *GRPCHandler) SoldOrders(ctx context.Context, _ *Empty) (*OrdersResponse, error) {
	return h.listOrders(ctx, "SoldOrders", h.deps.Views.SoldOrders)
}

func (h *GRPCHandler) PendingDeliveries(ctx context.Context, _ *Empty) (*OrdersResponse, error) {
	return h.listOrders(ctx, "PendingDeliveries", h.deps.Views.PendingDeliveries)
}

func (h *GRPCHandler) listOrders(ctx context.Context, name string, view func(context.Context, string) ([]domain.OrderDetails, error)) (*OrdersResponse, error) {
	ctx, span := h.tracer.Start(ctx, name)
	defer span.End()

	orders, err := view(ctx, grpcUser(ctx))
	if err != nil {
		return nil, h.status(span, err)
	}
	return ordersResponse(orders), nil
}

func (h *GRPCHandler) AddCartItem(ctx context.Context, req *CartItemRequest) (*Empty, error) {
	ctx, span := h.tracer.Start(ctx, "AddCartItem")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, h.status(span, err)
	}
	if err := h.deps.Cart.Add(ctx, grpcUser(ctx), req.ItemID); err != nil {
		return nil, h.status(span, err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) RemoveCartItem(ctx context.Context, req *CartItemRequest) (*Empty, error) {
	ctx, span := h.tracer.Start(ctx, "RemoveCartItem")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, h.status(span, err)
	}
	if err := h.deps.Cart.Remove(ctx, grpcUser(ctx), req.ItemID); err != nil {
		return nil, h.status(span, err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) ListCart(ctx context.Context, _ *Empty) (*ItemsResponse, error) {
	ctx, span := h.tracer.Start(ctx, "ListCart")
	defer span.End()

	items, err := h.deps.Cart.ListAvailable(ctx, grpcUser(ctx))
	if err != nil {
		return nil, h.status(span, err)
	}
	return itemsResponse(items), nil
}

func (h *GRPCHandler) SearchItems(ctx context.Context, _ *Empty) (*ItemsResponse, error) {
	ctx, span := h.tracer.Start(ctx, "SearchItems")
	defer span.End()

	items, err := h.deps.Cart.Search(ctx, grpcUser(ctx))
	if err != nil {
		return nil, h.status(span, err)
	}
	return itemsResponse(items), nil
}

func (h *GRPCHandler) status(span trace.Span, err error) error {
	kind := classify(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, kind.String())
	if kind == kindInternal {
		h.log.Error("rpc failed", "err", err)
	}
	return status.Error(kind.grpcCode(), publicMessage(err, kind))
}

// OrderServiceClient calls OrderService with the JSON codec.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*domain.OrderDetails, error) {
	out := new(domain.OrderDetails)
	if err := c.invoke(ctx, "CreateOrder", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) VerifyDelivery(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*domain.DeliveryResult, error) {
	out := new(domain.DeliveryResult)
	if err := c.invoke(ctx, "VerifyDelivery", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) PendingOrders(ctx context.Context, opts ...grpc.CallOption) (*OrdersResponse, error) {
	return c.orders(ctx, "PendingOrders", opts)
}

func (c *OrderServiceClient) BoughtOrders(ctx context.Context, opts ...grpc.CallOption) (*OrdersResponse, error) {
	return c.orders(ctx, "BoughtOrders", opts)
}

func (c *OrderServiceClient) SoldOrders(ctx context.Context, opts ...grpc.CallOption) (*OrdersResponse, error) {
	return c.orders(ctx, "SoldOrders", opts)
}

func (c *OrderServiceClient) PendingDeliveries(ctx context.Context, opts ...grpc.CallOption) (*OrdersResponse, error) {
	return c.orders(ctx, "PendingDeliveries", opts)
}

func (c *OrderServiceClient) orders(ctx context.Context, method string, opts []grpc.CallOption) (*OrdersResponse, error) {
	out := new(OrdersResponse)
	if err := c.invoke(ctx, method, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) AddCartItem(ctx context.Context, in *CartItemRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "AddCartItem", in, &Empty{}, opts)
}

func (c *OrderServiceClient) RemoveCartItem(ctx context.Context, in *CartItemRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "RemoveCartItem", in, &Empty{}, opts)
}

func (c *OrderServiceClient) ListCart(ctx context.Context, opts ...grpc.CallOption) (*ItemsResponse, error) {
	return c.items(ctx, "ListCart", opts)
}

func (c *OrderServiceClient) SearchItems(ctx context.Context, opts ...grpc.CallOption) (*ItemsResponse, error) {
	return c.items(ctx, "SearchItems", opts)
}

func (c *OrderServiceClient) items(ctx context.Context, method string, opts []grpc.CallOption) (*ItemsResponse, error) {
	out := new(ItemsResponse)
	if err := c.invoke(ctx, method, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
