package rpcproto

import (
	"encoding/json"
	"fmt"
)

// wireEnvelope is the over-the-wire shape of StreamingMessage: one optional
// field per oneof variant, exactly as protobuf's JSON mapping represents a
// oneof. Exactly one field is expected to be set on any given message.
type wireEnvelope struct {
	RequestId                        string                            `json:"requestId,omitempty"`
	StartStream                      *StartStream                      `json:"startStream,omitempty"`
	WorkerInitRequest                *WorkerInitRequest                `json:"workerInitRequest,omitempty"`
	WorkerInitResponse               *WorkerInitResponse               `json:"workerInitResponse,omitempty"`
	WorkerStatusRequest               *WorkerStatusRequest              `json:"workerStatusRequest,omitempty"`
	WorkerStatusResponse              *WorkerStatusResponse             `json:"workerStatusResponse,omitempty"`
	FunctionLoadRequest               *FunctionLoadRequest              `json:"functionLoadRequest,omitempty"`
	FunctionLoadResponse              *FunctionLoadResponse             `json:"functionLoadResponse,omitempty"`
	InvocationRequest                 *InvocationRequest                `json:"invocationRequest,omitempty"`
	InvocationResponse                *InvocationResponse               `json:"invocationResponse,omitempty"`
	RpcLog                            *RpcLog                           `json:"rpcLog,omitempty"`
	FileChangeEventRequest            *FileChangeEventRequest           `json:"fileChangeEventRequest,omitempty"`
	InvocationCancel                  *InvocationCancel                 `json:"invocationCancel,omitempty"`
	FunctionEnvironmentReloadRequest  *FunctionEnvironmentReloadRequest `json:"functionEnvironmentReloadRequest,omitempty"`
}

// MarshalJSON implements the oneof -> flat-envelope mapping.
func (m StreamingMessage) MarshalJSON() ([]byte, error) {
	env := wireEnvelope{RequestId: m.RequestId}
	switch c := m.Content.(type) {
	case ContentStartStream:
		env.StartStream = c.StartStream
	case ContentWorkerInitRequest:
		env.WorkerInitRequest = c.WorkerInitRequest
	case ContentWorkerInitResponse:
		env.WorkerInitResponse = c.WorkerInitResponse
	case ContentWorkerStatusRequest:
		env.WorkerStatusRequest = c.WorkerStatusRequest
	case ContentWorkerStatusResponse:
		env.WorkerStatusResponse = c.WorkerStatusResponse
	case ContentFunctionLoadRequest:
		env.FunctionLoadRequest = c.FunctionLoadRequest
	case ContentFunctionLoadResponse:
		env.FunctionLoadResponse = c.FunctionLoadResponse
	case ContentInvocationRequest:
		env.InvocationRequest = c.InvocationRequest
	case ContentInvocationResponse:
		env.InvocationResponse = c.InvocationResponse
	case ContentRpcLog:
		env.RpcLog = c.RpcLog
	case ContentFileChangeEventRequest:
		env.FileChangeEventRequest = c.FileChangeEventRequest
	case ContentInvocationCancel:
		env.InvocationCancel = c.InvocationCancel
	case ContentFunctionEnvironmentReloadRequest:
		env.FunctionEnvironmentReloadRequest = c.FunctionEnvironmentReloadRequest
	case nil:
		// no content set; used only for malformed-message tests
	default:
		return nil, fmt.Errorf("rpcproto: unknown content type %T", c)
	}
	return json.Marshal(env)
}

// UnmarshalJSON implements the flat-envelope -> oneof mapping.
func (m *StreamingMessage) UnmarshalJSON(data []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	m.RequestId = env.RequestId
	switch {
	case env.StartStream != nil:
		m.Content = ContentStartStream{env.StartStream}
	case env.WorkerInitRequest != nil:
		m.Content = ContentWorkerInitRequest{env.WorkerInitRequest}
	case env.WorkerInitResponse != nil:
		m.Content = ContentWorkerInitResponse{env.WorkerInitResponse}
	case env.WorkerStatusRequest != nil:
		m.Content = ContentWorkerStatusRequest{env.WorkerStatusRequest}
	case env.WorkerStatusResponse != nil:
		m.Content = ContentWorkerStatusResponse{env.WorkerStatusResponse}
	case env.FunctionLoadRequest != nil:
		m.Content = ContentFunctionLoadRequest{env.FunctionLoadRequest}
	case env.FunctionLoadResponse != nil:
		m.Content = ContentFunctionLoadResponse{env.FunctionLoadResponse}
	case env.InvocationRequest != nil:
		m.Content = ContentInvocationRequest{env.InvocationRequest}
	case env.InvocationResponse != nil:
		m.Content = ContentInvocationResponse{env.InvocationResponse}
	case env.RpcLog != nil:
		m.Content = ContentRpcLog{env.RpcLog}
	case env.FileChangeEventRequest != nil:
		m.Content = ContentFileChangeEventRequest{env.FileChangeEventRequest}
	case env.InvocationCancel != nil:
		m.Content = ContentInvocationCancel{env.InvocationCancel}
	case env.FunctionEnvironmentReloadRequest != nil:
		m.Content = ContentFunctionEnvironmentReloadRequest{env.FunctionEnvironmentReloadRequest}
	default:
		m.Content = nil
	}
	return nil
}
