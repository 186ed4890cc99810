// Package logsink is the Logger Sink of spec §4.D: a process-wide,
// install-once structured logger that converts every record into an
// RpcLog message tagged with whatever invocation context is active, and
// submits it to the Outbound Serializer.
//
// Two front ends share one underlying slog.Handler:
//
//   - Sink.Slog(), a plain *log/slog.Logger, for context-carrying calls
//     (slog.InfoContext(ctx, ...)) made from within an invocation's fault
//     boundary; slog always forwards the exact ctx given to the call site
//     straight to Handler.Handle, which is how the invocation id and
//     function name (spec §4.E) end up on the emitted RpcLog.
//   - Sink.Logiface(), a github.com/joeycumines/logiface facade (backed by
//     github.com/joeycumines/logiface-slog) for structured logging that
//     carries no invocation context, matching the pack's usual chained
//     Builder style. The Lifecycle Controller's own startup lines go to
//     slog.Default() and do not pass through the sink.
package logsink

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"

	"github.com/joeycumines/azfunc-go-worker/internal/invocation"
	"github.com/joeycumines/azfunc-go-worker/internal/rpcproto"
)

// Sender is the subset of *transport.Stream the sink needs. Kept as an
// interface so tests can substitute a recording fake without standing up a
// real stream.
type Sender interface {
	Send(ctx context.Context, msg *rpcproto.StreamingMessage) error
}

// handler is a log/slog.Handler that turns every record into an RpcLog and
// submits it to the outbound serializer, tagged with whichever invocation
// id and function name are active on the ctx given to Handle.
//
// The log severity level is hard-coded (spec §9 Open Questions: "a TODO in
// the source" — this worker preserves that default rather than negotiating
// it with the host).
type handler struct {
	sender Sender
	level  slog.Leveler
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, record slog.Record) error {
	msg := &rpcproto.StreamingMessage{
		Content: rpcproto.ContentRpcLog{RpcLog: &rpcproto.RpcLog{
			InvocationId: invocation.InvocationID(ctx),
			Category:     invocation.FunctionName(ctx),
			Message:      record.Message,
			Level:        toRpcLogLevel(record.Level),
		}},
	}
	// A log send must never be held hostage by the caller's own
	// cancellation, so it uses context.Background(); it still returns once
	// the stream shuts down, because Send also watches the Stream's own ctx.
	return h.sender.Send(context.Background(), msg)
}

// WithAttrs and WithGroup are required by slog.Handler but this sink has no
// wire field for arbitrary structured attributes; they're no-ops that
// return the same handler.
func (h *handler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *handler) WithGroup(string) slog.Handler      { return h }

func toRpcLogLevel(lvl slog.Level) rpcproto.RpcLogLevel {
	switch {
	case lvl < slog.LevelDebug:
		return rpcproto.RpcLogTrace
	case lvl < slog.LevelInfo:
		return rpcproto.RpcLogDebug
	case lvl < slog.LevelWarn:
		return rpcproto.RpcLogInformation
	case lvl < slog.LevelError:
		return rpcproto.RpcLogWarning
	default:
		return rpcproto.RpcLogError
	}
}

// Sink is the installed Logger Sink: one shared handler, exposed through
// both a context-aware *slog.Logger and a logiface facade.
type Sink struct {
	handler *handler
	slogger *slog.Logger
	facade  *logiface.Logger[*logifaceslog.Event]
}

// Slog returns the context-aware front end. Calls such as
// s.Slog().ErrorContext(ctx, msg) tag the emitted RpcLog with whatever
// invocation state ctx carries (spec §4.E).
func (s *Sink) Slog() *slog.Logger { return s.slogger }

// Logiface returns the chained-Builder front end, for logging that has no
// per-invocation context; its records carry the "<unknown>" function name
// and an empty invocation id.
func (s *Sink) Logiface() *logiface.Logger[*logifaceslog.Event] { return s.facade }

var installed atomic.Bool

// ErrAlreadyInstalled is returned by Install if called more than once (spec
// §3 Lifecycle: "Logger Sink installed exactly once, at worker-init"; spec
// §9 Design Notes: "reject subsequent installs").
var ErrAlreadyInstalled = fmt.Errorf("logsink: already installed")

// Install builds the process-wide Logger Sink. It must be called exactly
// once; a second call returns ErrAlreadyInstalled.
func Install(sender Sender) (*Sink, error) {
	if !installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}
	return build(sender), nil
}

func build(sender Sender) *Sink {
	h := &handler{sender: sender, level: slog.LevelDebug}
	return &Sink{
		handler: h,
		slogger: slog.New(h),
		facade:  logiface.New[*logifaceslog.Event](logifaceslog.NewLogger(h)),
	}
}

// NewForTest builds a Sink bypassing the process-wide singleton guard. It
// exists for tests (this package's and others') that need a Sink without
// running the full Lifecycle Controller handshake; production code must
// go through Install.
func NewForTest(sender Sender) *Sink {
	return build(sender)
}
