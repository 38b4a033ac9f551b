package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nescore/cpu"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nescore.Control"

// ControlServer is the server side of nescore.Control.
type ControlServer interface {
	GetFrame(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	ReadMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	ReadMemoryBlock(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	GetCPUState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Step(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	SaveState(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	LoadState(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	StreamInput(grpc.ServerStream) error
}

// unary describes a method whose handler is a ControlServer method
// expression.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](name string, h func(ControlServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ControlServer)
			if interceptor == nil {
				return h(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(s, ctx, req.(PReq))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetFrame", ControlServer.GetFrame),
		unary("ReadMemory", ControlServer.ReadMemory),
		unary("ReadMemoryBlock", ControlServer.ReadMemoryBlock),
		unary("GetCPUState", ControlServer.GetCPUState),
		unary("Pause", ControlServer.Pause),
		unary("Resume", ControlServer.Resume),
		unary("Step", ControlServer.Step),
		unary("Reset", ControlServer.Reset),
		unary("SaveState", ControlServer.SaveState),
		unary("LoadState", ControlServer.LoadState),
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "StreamInput",
		ClientStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			return srv.(ControlServer).StreamInput(stream)
		},
	}},
	Metadata: "nescore/control",
}

// Registers is the CPU register file as carried by GetCPUState.
type Registers struct {
	A, X, Y, SP, P byte
	PC             uint16
	Cycles         uint64
}

func registersFrom(s cpu.State) Registers {
	return Registers{A: s.A, X: s.X, Y: s.Y, SP: s.SP, P: s.P, PC: s.PC, Cycles: s.Cycles}
}

func (r Registers) toStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"a":      structpb.NewNumberValue(float64(r.A)),
		"x":      structpb.NewNumberValue(float64(r.X)),
		"y":      structpb.NewNumberValue(float64(r.Y)),
		"sp":     structpb.NewNumberValue(float64(r.SP)),
		"p":      structpb.NewNumberValue(float64(r.P)),
		"pc":     structpb.NewNumberValue(float64(r.PC)),
		"cycles": structpb.NewNumberValue(float64(r.Cycles)),
	}}
}

func registersFromStruct(s *structpb.Struct) Registers {
	f := s.GetFields()
	n := func(k string) float64 { return f[k].GetNumberValue() }
	return Registers{
		A:      byte(n("a")),
		X:      byte(n("x")),
		Y:      byte(n("y")),
		SP:     byte(n("sp")),
		P:      byte(n("p")),
		PC:     uint16(n("pc")),
		Cycles: uint64(n("cycles")),
	}
}
