// Package worker is the Lifecycle Controller of spec §4.H: it drives the
// initial handshake with the Azure Functions Host, installs the Logger
// Sink and fault boundary exactly once, then hands the connection to the
// Dispatcher until the stream ends or the process is asked to stop.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/joeycumines/azfunc-go-worker/internal/dispatcher"
	"github.com/joeycumines/azfunc-go-worker/internal/logsink"
	"github.com/joeycumines/azfunc-go-worker/internal/registry"
	"github.com/joeycumines/azfunc-go-worker/internal/rpcproto"
	"github.com/joeycumines/azfunc-go-worker/internal/transport"
)

const shutdownGrace = 30 * time.Second

// Config carries the CLI surface of spec §6.
type Config struct {
	Host                 string
	Port                 uint16
	WorkerID             string
	RequestID            string
	GrpcMaxMessageLength int // 0 means "use grpc's default"
}

// FatalError wraps a condition that requires the worker process to exit
// non-zero (spec §7: "Fatal — terminate").
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string { return "worker: fatal: " + e.Cause.Error() }
func (e *FatalError) Unwrap() error { return e.Cause }

func fatalf(format string, args ...any) error {
	return &FatalError{Cause: fmt.Errorf(format, args...)}
}

// Run executes the full lifecycle (spec §4.H steps 1-8) and blocks until
// the stream ends or ctx is cancelled, returning nil on a clean shutdown.
func Run(ctx context.Context, cfg Config, functions []*registry.Function) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	// connectionID has nothing to do with the host's requestId; it's a
	// local correlator so log lines from successive reconnect attempts of
	// the same worker process can be told apart.
	connectionID := uuid.NewString()
	slog.Default().Info("connecting to Azure Functions host", "target", target, "workerId", cfg.WorkerID, "connectionId", connectionID)

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.GrpcMaxMessageLength > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.GrpcMaxMessageLength),
			grpc.MaxCallSendMsgSize(cfg.GrpcMaxMessageLength),
		))
	}

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return fatalf("dialing host %s: %w", target, err)
	}
	defer conn.Close()

	client := rpcproto.NewFunctionRpcClient(conn)
	stream, err := transport.Open(ctx, func(ctx context.Context, opts ...grpc.CallOption) (transport.Client, error) {
		return client.EventStream(ctx, opts...)
	})
	if err != nil {
		return fatalf("opening event stream: %w", err)
	}

	inbound := make(chan *rpcproto.StreamingMessage, 64)
	unsubscribe := stream.Subscribe(ctx, inbound)
	defer unsubscribe()

	if err := stream.Send(ctx, &rpcproto.StreamingMessage{
		Content: rpcproto.ContentStartStream{StartStream: &rpcproto.StartStream{WorkerId: cfg.WorkerID}},
	}); err != nil {
		return fatalf("sending StartStream: %w", err)
	}

	initReq, err := awaitWorkerInit(ctx, inbound)
	if err != nil {
		_ = stream.Close()
		return err
	}

	slog.Default().Info("connected to Azure Functions host", "hostVersion", initReq.HostVersion, "connectionId", connectionID)

	sink, err := logsink.Install(stream)
	if err != nil {
		_ = stream.Close()
		return fatalf("installing logger sink: %w", err)
	}

	if err := stream.Send(ctx, &rpcproto.StreamingMessage{
		Content: rpcproto.ContentWorkerInitResponse{WorkerInitResponse: &rpcproto.WorkerInitResponse{
			WorkerVersion: Version,
			Result:        rpcproto.StatusResult{Status: rpcproto.StatusSuccess},
		}},
	}); err != nil {
		return fatalf("sending WorkerInitResponse: %w", err)
	}

	reg := registry.New(functions)
	disp := dispatcher.New(reg, sink, stream)

	runErr := runDispatcher(ctx, stream, disp, inbound)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	streamErr := stream.Shutdown(shutdownCtx)

	if runErr != nil {
		return fatalf("dispatcher: %w", runErr)
	}
	if streamErr != nil {
		return fatalf("stream closed with error: %w", streamErr)
	}
	return nil
}

// runDispatcher drives disp.Run until it returns on its own, or the stream
// ends first. stream.Done() is the authoritative "stream has ended" signal
// (spec §4.H Shutdown: "triggered by inbound stream end"): a host-initiated
// close or a transport-fatal send/recv error stops transport.Stream.run()
// but neither closes inbound (fed through a bigbuff.Notifier, which has no
// "closed" signal, only delivery) nor cancels ctx, so disp.Run would
// otherwise block on inbound forever. Racing the two and cancelling the
// dispatcher's own child context on stream.Done() unblocks it via ctx.Done()
// in that case.
func runDispatcher(ctx context.Context, stream *transport.Stream, disp *dispatcher.Dispatcher, inbound <-chan *rpcproto.StreamingMessage) error {
	dispCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- disp.Run(dispCtx, inbound) }()

	select {
	case err := <-done:
		return err
	case <-stream.Done():
		cancel()
		return <-done
	}
}

func awaitWorkerInit(ctx context.Context, inbound <-chan *rpcproto.StreamingMessage) (*rpcproto.WorkerInitRequest, error) {
	select {
	case <-ctx.Done():
		return nil, fatalf("cancelled before WorkerInitRequest: %w", ctx.Err())
	case msg, ok := <-inbound:
		if !ok {
			return nil, fatalf("stream closed before WorkerInitRequest")
		}
		c, ok := msg.Content.(rpcproto.ContentWorkerInitRequest)
		if !ok {
			return nil, fatalf("expected WorkerInitRequest, got %T", msg.Content)
		}
		return c.WorkerInitRequest, nil
	}
}
