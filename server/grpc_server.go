// Package server exposes a running console over gRPC for remote input,
// debugging and scripted play.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/nes"
)

// DefaultPort is where the GUI host listens.
const DefaultPort = 50051

// Emulator is what the server drives.
type Emulator interface {
	Frame() []byte
	Peek(addr uint16) byte
	PeekBlock(addr uint16, n int) []byte
	CPUState() cpu.State
	Pause()
	Resume() error
	Step() error
	Reset()
	SaveState() ([]byte, error)
	LoadState(data []byte) error
}

// Server implements the nescore.Control service. It also serves as a
// controller.Provider holding the buttons streamed by remote clients.
type Server struct {
	mu       sync.Mutex
	emu      Emulator
	input    [2]controller.Buttons
	listener net.Listener
	server   *grpc.Server
}

// New creates a server driving emu. emu may be nil until SetEmulator.
func New(emu Emulator) *Server {
	return &Server{emu: emu}
}

// SetEmulator changes the emulator the server drives.
func (s *Server) SetEmulator(emu Emulator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emu = emu
}

func (s *Server) emulator() (Emulator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emu == nil {
		return nil, status.Error(codes.Unavailable, "emulator not connected")
	}
	return s.emu, nil
}

// Buttons implements controller.Provider.
func (s *Server) Buttons(port int) controller.Buttons {
	s.mu.Lock()
	defer s.mu.Unlock()
	if port < 0 || port > 1 {
		return controller.Buttons{}
	}
	return s.input[port]
}

// Register adds the service to g.
func (s *Server) Register(g *grpc.Server) {
	g.RegisterService(&serviceDesc, s)
}

// Start begins listening for gRPC connections on the given port.
func (s *Server) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Printf("gRPC server listening on :%d", port)
	s.Serve(lis)
	return nil
}

// Serve accepts connections on lis in a background goroutine.
func (s *Server) Serve(lis net.Listener) {
	g := grpc.NewServer()
	s.Register(g)

	s.mu.Lock()
	s.listener, s.server = lis, g
	s.mu.Unlock()

	go func() {
		if err := g.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the gRPC server.
func (s *Server) Stop() {
	s.mu.Lock()
	g := s.server
	s.server = nil
	s.mu.Unlock()
	if g != nil {
		g.GracefulStop()
	}
}

// toStatus maps emulator errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nes.ErrRunning), errors.Is(err, nes.ErrNoCartridge):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, mapper.ErrStateMismatch), errors.Is(err, nes.ErrSnapshotFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// GetFrame returns the last completed picture as RGBA bytes.
func (s *Server) GetFrame(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(emu.Frame()), nil
}

// ReadMemory returns one byte of CPU address space.
func (s *Server) ReadMemory(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	if in.GetValue() > 0xFFFF {
		return nil, status.Errorf(codes.InvalidArgument, "address $%X out of range", in.GetValue())
	}
	return wrapperspb.UInt32(uint32(emu.Peek(uint16(in.GetValue())))), nil
}

// ReadMemoryBlock returns size bytes starting at address. The request is a
// struct with numeric "address" and "size" fields.
func (s *Server) ReadMemoryBlock(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	fields := in.GetFields()
	addr := fields["address"].GetNumberValue()
	size := fields["size"].GetNumberValue()
	if addr < 0 || addr > 0xFFFF || size < 0 || size > 0x10000 {
		return nil, status.Errorf(codes.InvalidArgument, "bad block $%X+%d", int(addr), int(size))
	}
	return wrapperspb.Bytes(emu.PeekBlock(uint16(addr), int(size))), nil
}

// GetCPUState returns the CPU registers.
func (s *Server) GetCPUState(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	return registersFrom(emu.CPUState()).toStruct(), nil
}

// Pause stops the emulation loop.
func (s *Server) Pause(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	emu.Pause()
	return &emptypb.Empty{}, nil
}

// Resume restarts the emulation loop.
func (s *Server) Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, toStatus(emu.Resume())
}

// Step executes one instruction of a paused console.
func (s *Server) Step(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	if err := emu.Step(); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Reset presses the reset button.
func (s *Server) Reset(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	emu.Reset()
	return &emptypb.Empty{}, nil
}

// SaveState returns an encoded snapshot.
func (s *Server) SaveState(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	data, err := emu.SaveState()
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(data), nil
}

// LoadState restores an encoded snapshot.
func (s *Server) LoadState(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	if err := emu.LoadState(in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// StreamInput receives button masks until the client closes the stream.
// Bits 0-7 are the buttons in controller order and bits 8-9 the player,
// where 0 and 1 both mean player one.
func (s *Server) StreamInput(stream grpc.ServerStream) error {
	for {
		in := new(wrapperspb.UInt32Value)
		err := stream.RecvMsg(in)
		if err == io.EOF {
			return stream.SendMsg(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}
		s.setInput(in.GetValue())
	}
}

func (s *Server) setInput(v uint32) {
	port := 0
	if v>>8&3 == 2 {
		port = 1
	}
	s.mu.Lock()
	s.input[port] = controller.FromMask(byte(v))
	s.mu.Unlock()
}

// InputMask packs a player number (1 or 2) and buttons for StreamInput.
func InputMask(player int, b controller.Buttons) uint32 {
	return uint32(player&3)<<8 | uint32(b.Mask())
}
