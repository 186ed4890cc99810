// Package transport wraps the bidirectional gRPC stream to the Azure
// Functions Host with the single-writer Outbound Serializer (spec §4.C)
// and an inbound fan-out, adapted from the pack's generic
// fangrpcstream.Stream.
package transport

import (
	"context"
	"io"
	"net"
	"sync"

	bigbuff "github.com/joeycumines/go-bigbuff"
	"google.golang.org/grpc"

	"github.com/joeycumines/azfunc-go-worker/internal/rpcproto"
)

// Client is the subset of rpcproto.FunctionRpc_EventStreamClient the
// Stream needs; it's satisfied by the real client stub and by any bufconn
// / in-process fake used in tests.
type Client interface {
	Send(*rpcproto.StreamingMessage) error
	Recv() (*rpcproto.StreamingMessage, error)
	grpc.ClientStream
}

// Factory opens a new bidirectional stream, mirroring
// rpcproto.FunctionRpcClient.EventStream.
type Factory func(ctx context.Context, opts ...grpc.CallOption) (Client, error)

// Stream is the single owner of the RPC send-half (spec §4.C, §5 "the RPC
// send-half is owned exclusively by the Outbound Serializer"). Any number
// of producers (the Dispatcher, the Logger Sink, invocation tasks) may call
// Send concurrently; exactly one goroutine drains the intake and writes to
// the wire.
type Stream struct {
	notifier bigbuff.Notifier
	ctx      context.Context
	stream   Client
	err      error
	cancel   context.CancelFunc
	intake   chan *rpcproto.StreamingMessage
	done     chan struct{}
	stop     chan struct{}
	mu       sync.Mutex
}

// Open dials a new Stream via factory and starts its send/receive pumps.
func Open(ctx context.Context, factory Factory, opts ...grpc.CallOption) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	var success bool
	defer func() {
		if !success {
			cancel()
		}
	}()

	stream, err := factory(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		ctx:    ctx,
		cancel: cancel,
		stream: stream,
		intake: make(chan *rpcproto.StreamingMessage),
		done:   make(chan struct{}),
		stop:   make(chan struct{}, 1),
	}

	go s.run()

	success = true
	return s, nil
}

func (s *Stream) run() {
	defer close(s.done)
	defer s.cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	// inbound: read in arrival order, fan out to subscribers (the Dispatcher).
	go func() {
		defer wg.Done()
		for {
			msg, err := s.stream.Recv()
			if err != nil {
				if s.ctx.Err() != nil {
					// the stream's own context was cancelled (Close, a
					// Shutdown past its deadline, or the caller's ctx): a
					// caller-initiated shutdown, reported as a clean close
					err = io.EOF
				}
				s.fatalErr(err)
				return
			}
			s.notifier.PublishContext(s.ctx, nil, msg)
		}
	}()

	// outbound: the single writer onto the send-half.
	go func() {
		defer wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return

			case <-s.stop:
				if err := s.stream.CloseSend(); err != nil {
					s.fatalErr(err)
				}
				return

			case msg := <-s.intake:
				if err := s.stream.Send(msg); err != nil {
					// spec §4.C: a send failure is fatal, the worker cannot
					// continue without its reply channel.
					s.fatalErr(err)
					return
				}
			}
		}
	}()

	wg.Wait()
}

func (s *Stream) fatalErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.cancel()
	if err != nil {
		s.err = err
	} else {
		s.err = s.ctx.Err()
	}
}

// Done is closed once both pumps have stopped.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the fatal error that stopped the stream, or nil on a clean
// EOF / caller-initiated shutdown.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Shutdown requests a drain-then-close of the outbound side and waits for
// both pumps to exit (spec §4.H Shutdown: "drain-then-close").
func (s *Stream) Shutdown(ctx context.Context) error {
	select {
	case s.stop <- struct{}{}:
	default:
	}

	select {
	case <-ctx.Done():
		s.cancel()
		<-s.done
	case <-s.done:
	}

	return s.Err()
}

// Close cancels the stream immediately, without draining.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return s.Err()
}

// Send submits a message to the Outbound Serializer's intake. It does not
// return until the message has been accepted for delivery (not until it
// has been written); producers calling Send concurrently are multiplexed
// safely onto the single writer goroutine.
func (s *Stream) Send(ctx context.Context, msg *rpcproto.StreamingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-s.ctx.Done():
		return net.ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-s.ctx.Done():
		return net.ErrClosed

	case s.intake <- msg:
		return nil
	}
}

// Subscribe registers target (a channel of *rpcproto.StreamingMessage) to
// receive every inbound message. The returned cancel func must be called
// unless ctx is cancelled first.
func (s *Stream) Subscribe(ctx context.Context, target any) context.CancelFunc {
	return s.notifier.SubscribeCancel(ctx, nil, target)
}
