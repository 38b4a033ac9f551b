package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nescore/controller"
)

// Client talks to a Server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the server at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
}

func (c *Client) call(ctx context.Context, method string) error {
	return c.invoke(ctx, method, &emptypb.Empty{}, &emptypb.Empty{})
}

// Frame returns the last completed picture as RGBA bytes.
func (c *Client) Frame(ctx context.Context) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "GetFrame", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// ReadMemory reads one byte of CPU address space.
func (c *Client) ReadMemory(ctx context.Context, addr uint16) (byte, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.invoke(ctx, "ReadMemory", wrapperspb.UInt32(uint32(addr)), out); err != nil {
		return 0, err
	}
	return byte(out.GetValue()), nil
}

// ReadMemoryBlock reads size bytes of CPU address space.
func (c *Client) ReadMemoryBlock(ctx context.Context, addr uint16, size int) ([]byte, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"address": structpb.NewNumberValue(float64(addr)),
		"size":    structpb.NewNumberValue(float64(size)),
	}}
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "ReadMemoryBlock", in, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// CPUState returns the CPU registers.
func (c *Client) CPUState(ctx context.Context) (Registers, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetCPUState", &emptypb.Empty{}, out); err != nil {
		return Registers{}, err
	}
	return registersFromStruct(out), nil
}

func (c *Client) Pause(ctx context.Context) error  { return c.call(ctx, "Pause") }
func (c *Client) Resume(ctx context.Context) error { return c.call(ctx, "Resume") }
func (c *Client) Step(ctx context.Context) error   { return c.call(ctx, "Step") }
func (c *Client) Reset(ctx context.Context) error  { return c.call(ctx, "Reset") }

// SaveState returns an encoded snapshot of the remote console.
func (c *Client) SaveState(ctx context.Context) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "SaveState", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// LoadState restores a snapshot returned by SaveState.
func (c *Client) LoadState(ctx context.Context, data []byte) error {
	return c.invoke(ctx, "LoadState", wrapperspb.Bytes(data), &emptypb.Empty{})
}

// InputStream sends button states to the server.
type InputStream struct {
	stream grpc.ClientStream
}

// StreamInput opens an input stream.
func (c *Client) StreamInput(ctx context.Context) (*InputStream, error) {
	s, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/StreamInput")
	if err != nil {
		return nil, err
	}
	return &InputStream{stream: s}, nil
}

// Send sets the buttons of player 1 or 2.
func (s *InputStream) Send(player int, b controller.Buttons) error {
	return s.stream.SendMsg(wrapperspb.UInt32(InputMask(player, b)))
}

// Close ends the stream and waits for the server to acknowledge it.
func (s *InputStream) Close() error {
	if err := s.stream.CloseSend(); err != nil {
		return err
	}
	return s.stream.RecvMsg(&emptypb.Empty{})
}
