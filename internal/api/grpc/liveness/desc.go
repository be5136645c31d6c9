package liveness

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "liveness.v1.LivenessService"

// Method names.
const (
	MethodCheckIn        = "CheckIn"
	MethodGetStatus      = "GetStatus"
	MethodListContacts   = "ListContacts"
	MethodAddContact     = "AddContact"
	MethodRemoveContacts = "RemoveContacts"
)

// LivenessServer is the server API of the liveness service.
type LivenessServer interface {
	CheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListContacts(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	AddContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveContacts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the liveness service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Mirrors generated service descriptors.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LivenessServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCheckIn, newStruct, LivenessServer.CheckIn),
		unary(MethodGetStatus, newEmpty, LivenessServer.GetStatus),
		unary(MethodListContacts, newEmpty, LivenessServer.ListContacts),
		unary(MethodAddContact, newStruct, LivenessServer.AddContact),
		unary(MethodRemoveContacts, newStruct, LivenessServer.RemoveContacts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "liveness/v1/liveness.proto",
}

// RegisterLivenessServer registers srv on s.
func RegisterLivenessServer(s grpc.ServiceRegistrar, srv LivenessServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

// fullMethod returns the /service/method path of a method.
func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method descriptor the protoc plugin would generate.
func unary[Req proto.Message](
	method string,
	newReq func() Req,
	call func(LivenessServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(LivenessServer), ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LivenessServer), ctx, req.(Req)) //nolint:forcetypeassert // Guaranteed by HandlerType.
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// LivenessClient is the client API of the liveness service.
type LivenessClient struct {
	cc grpc.ClientConnInterface
}

// NewLivenessClient creates a client stub on cc.
func NewLivenessClient(cc grpc.ClientConnInterface) *LivenessClient {
	return &LivenessClient{cc: cc}
}

func (c *LivenessClient) invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)

	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// CheckIn calls LivenessService.CheckIn.
func (c *LivenessClient) CheckIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCheckIn, in, opts...)
}

// GetStatus calls LivenessService.GetStatus.
func (c *LivenessClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetStatus, in, opts...)
}

// ListContacts calls LivenessService.ListContacts.
func (c *LivenessClient) ListContacts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListContacts, in, opts...)
}

// AddContact calls LivenessService.AddContact.
func (c *LivenessClient) AddContact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAddContact, in, opts...)
}

// RemoveContacts calls LivenessService.RemoveContacts.
func (c *LivenessClient) RemoveContacts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRemoveContacts, in, opts...)
}
