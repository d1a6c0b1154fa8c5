package grpcsec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// encodeBody marshals an outbound protobuf request message into the
// bytes rpcpipeline.WrapRequest signs or seals. Any concrete proto.Message
// works; a caller presenting a non-proto request (unlikely for a gRPC
// stub) gets a clear error instead of a panic deep in the pipeline.
func encodeBody(req any) ([]byte, error) {
	msg, ok := req.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("grpcsec: request does not implement proto.Message (%T)", req)
	}
	return proto.Marshal(msg)
}
