// Package faults implements the fault boundary of spec §4.G: every spawned
// invocation runs inside it, so that an abnormal invoker termination turns
// into a structured failure response plus one diagnostic log line, and
// never brings down the worker (spec §8: "An invocation fault never
// terminates the worker").
package faults

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/joeycumines/azfunc-go-worker/internal/invocation"
	"github.com/joeycumines/azfunc-go-worker/internal/logsink"
	"github.com/joeycumines/azfunc-go-worker/internal/registry"
)

// panickedResult is the fixed, host-matched text for a faulted invocation
// (spec §4.G item 1, §7 "user-visible failure text ... because the host
// and its tooling may match on them").
const panickedResult = "Azure Function panicked: see log for more information."

// Invoke runs fn.Invoker inside the fault boundary, converting any panic
// into a Failure result and logging one error-severity diagnostic via the
// installed Logger Sink. It never panics itself: the boundary does not
// propagate beyond this one invocation (spec §4.G, §5 shared-resource
// policy).
func Invoke(ctx context.Context, sink *logsink.Sink, fn *registry.Function, req registry.InvocationRequest) (resp registry.InvocationResponse) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		payload := payloadText(r)
		file, line := callerLocation()
		stack := string(debug.Stack())

		sink.Slog().ErrorContext(ctx, fmt.Sprintf(
			"Azure Function '%s' panicked with '%s', %s:%d\n%s",
			invocation.FunctionName(ctx), payload, file, line, stack,
		))

		resp = registry.InvocationResponse{
			Status: registry.StatusFailure,
			Result: panickedResult,
		}
	}()

	return fn.Invoker(ctx, fn.Name, req)
}

// payloadText coerces a recovered panic value to text, preferring a string
// payload, then an error, then a fmt.Stringer, then falling back to
// fmt.Sprint for anything else (spec §4.G item 2, §8 boundary case).
// recover() never yields nil here: the caller already returns before this
// is invoked when r == nil.
func payloadText(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(r)
	}
}

// callerLocation best-effort locates the source of the panic by walking
// up from the recover() point. This is the idiomatic Go stand-in for the
// source worker's PanicInfo::location() (spec's SUPPLEMENTED FEATURES note
// on panic source location): Go's recover does not carry a location the
// way Rust's panic hook does, so this walks runtime.Callers from the
// deferred function outward past the runtime's own panic machinery.
func callerLocation() (file string, line int) {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		file, line = frame.File, frame.Line
		if !more {
			break
		}
		// skip frames inside the Go runtime's own panic unwinding
		if !isRuntimeFrame(frame.Function) {
			break
		}
	}
	return file, line
}

func isRuntimeFrame(fn string) bool {
	return len(fn) >= 7 && fn[:7] == "runtime"
}
