// Package dispatcher implements spec §4.F: reads messages already fanned
// out by the transport layer, in arrival order, and routes each to its
// handler. Invocation dispatch is concurrent — the dispatcher spawns a
// goroutine per invocation and never blocks waiting for one to finish
// before reading the next inbound message (spec §5).
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/joeycumines/azfunc-go-worker/internal/faults"
	"github.com/joeycumines/azfunc-go-worker/internal/invocation"
	"github.com/joeycumines/azfunc-go-worker/internal/logsink"
	"github.com/joeycumines/azfunc-go-worker/internal/registry"
	"github.com/joeycumines/azfunc-go-worker/internal/rpcproto"
)

// Sender is the outbound half the dispatcher emits replies through; it is
// satisfied by *transport.Stream.
type Sender interface {
	Send(ctx context.Context, msg *rpcproto.StreamingMessage) error
}

// ProtocolError is fatal: an unexpected or unparseable message was read
// from the host (spec §4.F "Any other / unparseable: Fatal"; spec §7
// Protocol violation).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "dispatcher: protocol violation: " + e.Reason
}

// Dispatcher routes inbound StreamingMessages for the lifetime of one
// connection, after the initial handshake (spec §4.H) has completed.
type Dispatcher struct {
	registry *registry.Registry
	sink     *logsink.Sink
	sender   Sender

	wg sync.WaitGroup
}

// New builds a Dispatcher over an already-populated-as-it-goes Registry, an
// installed Logger Sink, and the Outbound Serializer to reply through.
func New(reg *registry.Registry, sink *logsink.Sink, sender Sender) *Dispatcher {
	return &Dispatcher{registry: reg, sink: sink, sender: sender}
}

// Run reads from inbound until it closes, ctx is done, or handling a
// message fails (a fatal protocol error, or a failed send of a synchronous
// reply). It returns nil when inbound closes or ctx is done.
//
// Per spec §5: responses to FunctionLoadRequest and WorkerStatusRequest are
// emitted before the next inbound message is read, because those are
// handled synchronously, inline in this loop. InvocationRequest handling
// spawns a goroutine and returns immediately, so the loop is never blocked
// by one invocation's work.
func (d *Dispatcher) Run(ctx context.Context, inbound <-chan *rpcproto.StreamingMessage) error {
	defer d.wg.Wait() // best-effort: let in-flight invocations finish (spec §4.H Shutdown)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if err := d.dispatch(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *rpcproto.StreamingMessage) error {
	switch c := msg.Content.(type) {
	case rpcproto.ContentWorkerInitRequest:
		return &ProtocolError{Reason: "duplicate WorkerInitRequest"}

	case rpcproto.ContentFunctionLoadRequest:
		return d.handleFunctionLoad(ctx, c.FunctionLoadRequest)

	case rpcproto.ContentInvocationRequest:
		return d.handleInvocation(ctx, c.InvocationRequest)

	case rpcproto.ContentWorkerStatusRequest:
		return d.handleWorkerStatus(ctx)

	case rpcproto.ContentFileChangeEventRequest,
		rpcproto.ContentInvocationCancel,
		rpcproto.ContentFunctionEnvironmentReloadRequest:
		return nil // accepted silently; spec §5 Cancellation, §9 Open Questions

	default:
		return &ProtocolError{Reason: fmt.Sprintf("unexpected message content %T", c)}
	}
}

func (d *Dispatcher) handleFunctionLoad(ctx context.Context, req *rpcproto.FunctionLoadRequest) error {
	result := rpcproto.StatusResult{Status: rpcproto.StatusSuccess}

	switch {
	case req.Metadata == nil:
		result.Status = rpcproto.StatusFailure
		result.Result = "Function load request metadata is missing."
	case !d.registry.Register(req.FunctionId, req.Metadata.Name):
		result.Status = rpcproto.StatusFailure
		result.Result = fmt.Sprintf("Function '%s' does not exist.", req.Metadata.Name)
	}

	return d.sender.Send(ctx, &rpcproto.StreamingMessage{
		Content: rpcproto.ContentFunctionLoadResponse{FunctionLoadResponse: &rpcproto.FunctionLoadResponse{
			FunctionId: req.FunctionId,
			Result:     result,
		}},
	})
}

func (d *Dispatcher) handleInvocation(ctx context.Context, req *rpcproto.InvocationRequest) error {
	fn, ok := d.registry.Get(req.FunctionId)
	if !ok {
		return d.sender.Send(ctx, &rpcproto.StreamingMessage{
			Content: rpcproto.ContentInvocationResponse{InvocationResponse: &rpcproto.InvocationResponse{
				InvocationId: req.InvocationId,
				Result: rpcproto.StatusResult{
					Status: rpcproto.StatusFailure,
					Result: fmt.Sprintf("Function with id '%s' does not exist.", req.FunctionId),
				},
			}},
		})
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.invoke(ctx, fn, req)
	}()
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, fn *registry.Function, req *rpcproto.InvocationRequest) {
	invCtx := invocation.Begin(ctx, fn.Name, req.InvocationId)

	domainReq := registry.InvocationRequest{
		InvocationId: req.InvocationId,
		FunctionId:   req.FunctionId,
		InputData:    bindingsToMap(req.InputData),
	}

	domainResp := faults.Invoke(invCtx, d.sink, fn, domainReq)

	wireResp := &rpcproto.InvocationResponse{
		InvocationId: req.InvocationId,
		Result: rpcproto.StatusResult{
			Status: toWireStatus(domainResp.Status),
			Result: domainResp.Result,
		},
		OutputData:  mapToBindings(domainResp.OutputData),
		ReturnValue: domainResp.ReturnValue,
	}

	// submit after any synchronously-produced logs (spec §5 ordering
	// guarantee: "implementers should submit the response after all
	// synchronously produced logs for deterministic test behavior").
	_ = d.sender.Send(ctx, &rpcproto.StreamingMessage{
		Content: rpcproto.ContentInvocationResponse{InvocationResponse: wireResp},
	})
}

func (d *Dispatcher) handleWorkerStatus(ctx context.Context) error {
	return d.sender.Send(ctx, &rpcproto.StreamingMessage{
		Content: rpcproto.ContentWorkerStatusResponse{WorkerStatusResponse: &rpcproto.WorkerStatusResponse{}},
	})
}

func toWireStatus(s registry.Status) rpcproto.Status {
	if s == registry.StatusSuccess {
		return rpcproto.StatusSuccess
	}
	return rpcproto.StatusFailure
}

func bindingsToMap(bindings []rpcproto.ParameterBinding) map[string]string {
	if len(bindings) == 0 {
		return nil
	}
	m := make(map[string]string, len(bindings))
	for _, b := range bindings {
		m[b.Name] = b.Data
	}
	return m
}

func mapToBindings(m map[string]string) []rpcproto.ParameterBinding {
	if len(m) == 0 {
		return nil
	}
	bindings := make([]rpcproto.ParameterBinding, 0, len(m))
	for name, data := range m {
		bindings = append(bindings, rpcproto.ParameterBinding{Name: name, Data: data})
	}
	return bindings
}
