package handlers

import (
	"context"
	"log/slog"
	"storefront/internal/cart"
	"storefront/pkg/logkey"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	CartServiceName          = "storefront.cart.v1.CartService"
	GetCartDetailsFullMethod = "/" + CartServiceName + "/GetCartDetails"
)

// CartReader returns the aggregated cart of a user. *cart.Conf satisfies it.
type CartReader interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
}

// CartDetailsServer answers GetCartDetails with the user id as a
// StringValue and the cart as a Struct.
type CartDetailsServer interface {
	GetCartDetails(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: CartServiceName,
	HandlerType: (*CartDetailsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCartDetails", Handler: getCartDetailsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/cart/v1/cart.proto",
}

func getCartDetailsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartDetailsServer).GetCartDetails(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetCartDetailsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CartDetailsServer).GetCartDetails(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// GetCartDetails calls the cart service on cc.
func GetCartDetails(ctx context.Context, cc grpc.ClientConnInterface, userID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, GetCartDetailsFullMethod, wrapperspb.String(userID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type cartItemService struct {
	cart CartReader
}

func NewCartItemServiceHandler(cr CartReader) CartDetailsServer {
	return &cartItemService{cart: cr}
}

func (s *cartItemService) GetCartDetails(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID := strings.TrimSpace(req.GetValue())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		slog.Error("failed to get cart details", slog.String(logkey.UserID, userID), slog.String(logkey.ERROR, err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to get cart details: %v", err)
	}

	items := make([]any, 0, len(lines))
	for _, l := range lines {
		item := map[string]any{
			"kind":       string(l.Kind),
			"ref_id":     float64(l.RefID),
			"name":       l.Name,
			"quantity":   float64(l.Quantity),
			"unit_price": l.UnitPrice.StringFixed(2),
		}
		if l.Kind == cart.KindProduct {
			item["available_quantity"] = float64(l.AvailableQuantity)
		}
		items = append(items, item)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"user_id": userID,
		"items":   items,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode cart details: %v", err)
	}
	return resp, nil
}

// NewGRPCServer registers the cart service, health checking and reflection.
func NewGRPCServer(cr CartReader, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	s.RegisterService(&CartServiceDesc, NewCartItemServiceHandler(cr))

	hs := health.NewServer()
	hs.SetServingStatus(CartServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}
