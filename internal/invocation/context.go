// Package invocation carries the per-invocation ambient state described in
// spec §4.E: {function_name, invocation_id}. The source this worker is
// ported from relies on thread-local storage; Go's idiomatic equivalent for
// per-task ambient state threaded through call sites (including the
// logging call site) is a value carried on context.Context, which is what
// this package uses (spec §9 Design Notes, Task-local invocation context).
package invocation

import "context"

const unknownFunctionName = "<unknown>"

type contextKey struct{}

type state struct {
	functionName string
	invocationID string
}

// Begin returns a new context carrying the given invocation's ambient
// state. The returned context should be used for the whole lifetime of the
// invocation, including any logging performed within it; readers on
// unrelated contexts are unaffected (spec §4.E contract).
func Begin(ctx context.Context, functionName, invocationID string) context.Context {
	return context.WithValue(ctx, contextKey{}, &state{
		functionName: functionName,
		invocationID: invocationID,
	})
}

// FunctionName returns the active invocation's function name, or
// "<unknown>" if ctx carries no invocation state (spec §4.D: the sink must
// tag logs with "<unknown>" when no invocation is active).
func FunctionName(ctx context.Context) string {
	if s, ok := ctx.Value(contextKey{}).(*state); ok && s.functionName != "" {
		return s.functionName
	}
	return unknownFunctionName
}

// InvocationID returns the active invocation's id, or "" if ctx carries no
// invocation state (spec §4.D: empty if none).
func InvocationID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKey{}).(*state); ok {
		return s.invocationID
	}
	return ""
}
