// Package example holds a small, hand-written stand-in for the compile-time
// code generation that normally turns user source into registered function
// descriptors (spec §1, out of scope). say_hello and boom exist so the
// Registry and Dispatcher have something real to load and invoke, matching
// the E2E scenarios in spec §8 and the function naming convention of
// original_source's durable-functions example (say_hello::say_hello).
package example

import (
	"context"
	"fmt"

	"github.com/joeycumines/azfunc-go-worker/internal/registry"
)

// Functions returns the process's compiled-in function descriptors.
func Functions() []*registry.Function {
	return []*registry.Function{
		{Name: "say_hello", Invoker: sayHello},
		{Name: "boom", Invoker: boom},
	}
}

// sayHello echoes the "name" input binding back as the return value,
// matching spec §8 scenario 2 (Load and invoke).
func sayHello(_ context.Context, _ string, req registry.InvocationRequest) registry.InvocationResponse {
	name := req.InputData["name"]
	if name == "" {
		name = "world"
	}
	return registry.InvocationResponse{
		Status:      registry.StatusSuccess,
		ReturnValue: fmt.Sprintf("Hello, %s!", name),
	}
}

// boom always panics with a string payload, used by the fault-handler E2E
// scenario (spec §8 scenario 5: "Faulting invocation").
func boom(context.Context, string, registry.InvocationRequest) registry.InvocationResponse {
	panic("boom")
}
