package rpcproto

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName mirrors the real Azure Functions RPC protocol's service name,
// AzureFunctionsRpcMessages.FunctionRpc, so packet captures and host-side
// logs line up with what an operator expects to see.
const serviceName = "AzureFunctionsRpcMessages.FunctionRpc"

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a single bidirectional-streaming RPC method, EventStream.
// Code generation from a .proto file is out of scope (spec §1); this is the
// minimal stand-in the transport layer dials against.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FunctionRpcServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "EventStream",
			Handler:       eventStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
}

// FunctionRpcClient is the worker-side stub for dialing the host.
type FunctionRpcClient interface {
	EventStream(ctx context.Context, opts ...grpc.CallOption) (FunctionRpc_EventStreamClient, error)
}

// FunctionRpc_EventStreamClient is the bidirectional stream handle the
// worker sends StreamingMessages on and receives them from.
type FunctionRpc_EventStreamClient interface {
	Send(*StreamingMessage) error
	Recv() (*StreamingMessage, error)
	grpc.ClientStream
}

type functionRpcClient struct {
	cc grpc.ClientConnInterface
}

// NewFunctionRpcClient builds a client stub over an established connection.
func NewFunctionRpcClient(cc grpc.ClientConnInterface) FunctionRpcClient {
	return &functionRpcClient{cc: cc}
}

func (c *functionRpcClient) EventStream(ctx context.Context, opts ...grpc.CallOption) (FunctionRpc_EventStreamClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/EventStream", opts...)
	if err != nil {
		return nil, err
	}
	return &functionRpcEventStreamClient{stream}, nil
}

type functionRpcEventStreamClient struct {
	grpc.ClientStream
}

func (c *functionRpcEventStreamClient) Send(m *StreamingMessage) error {
	return c.ClientStream.SendMsg(m)
}

func (c *functionRpcEventStreamClient) Recv() (*StreamingMessage, error) {
	m := new(StreamingMessage)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// FunctionRpcServer is implemented by test fakes that play the host's side
// of the protocol (see internal/transport's fake host test helper).
type FunctionRpcServer interface {
	EventStream(FunctionRpc_EventStreamServer) error
}

// FunctionRpc_EventStreamServer is the server-side counterpart of
// FunctionRpc_EventStreamClient.
type FunctionRpc_EventStreamServer interface {
	Send(*StreamingMessage) error
	Recv() (*StreamingMessage, error)
	grpc.ServerStream
}

type functionRpcEventStreamServer struct {
	grpc.ServerStream
}

func (s *functionRpcEventStreamServer) Send(m *StreamingMessage) error {
	return s.ServerStream.SendMsg(m)
}

func (s *functionRpcEventStreamServer) Recv() (*StreamingMessage, error) {
	m := new(StreamingMessage)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func eventStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(FunctionRpcServer).EventStream(&functionRpcEventStreamServer{stream})
}

// RegisterFunctionRpcServer registers a FunctionRpcServer implementation
// with a grpc.Server, the way protoc-gen-go-grpc's generated
// RegisterXServer function would.
func RegisterFunctionRpcServer(s grpc.ServiceRegistrar, srv FunctionRpcServer) {
	s.RegisterService(&ServiceDesc, srv)
}
