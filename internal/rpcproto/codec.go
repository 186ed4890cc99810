package rpcproto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc's encoding package so that dialing with
// grpc.CallContentSubtype(rpcproto.CodecName) selects it. The real Azure
// Functions Host protocol is protobuf-over-gRPC; generating and vendoring
// the compiled .pb.go for that protocol is explicitly out of scope here
// (spec §1, "the underlying RPC framework / wire codec"). This codec
// implements the same pluggable-codec extension point grpc exposes for the
// real thing, using JSON as the wire format instead, so the transport layer
// above it never has to know the difference.
const CodecName = "funcrpcjson"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
