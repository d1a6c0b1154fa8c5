package rpcpipeline

import "github.com/clusterfs/rpcsec/pkg/flavor"

// UnwrapReply unpacks and verifies/unseals req's reply bytes (spec
// section 4.D "unwrap_reply"). It may be called at most once per
// request; a second call fails with ErrAlreadyDecoded.
func UnwrapReply(req *Request) error {
	req.mu.Lock()
	if req.decoded {
		req.mu.Unlock()
		return ErrAlreadyDecoded
	}
	repBuf := req.repBuf
	offset := req.replyOffset
	atSupport := req.atSupport
	req.mu.Unlock()

	if len(repBuf) == 0 {
		return ErrNoReply
	}
	if offset == 0 && atSupport {
		return ErrAdaptiveTimeoutProtocol
	}
	if offset%8 != 0 {
		return ErrProtocol
	}
	if offset >= len(repBuf) {
		return ErrProtocol
	}

	policy, service, swabbed, err := decodeMsgHeader(repBuf[offset:])
	if err != nil {
		return err
	}
	if policy != req.flavor.Policy {
		return ErrProtocol
	}

	ctx := req.Ctx()
	if ctx == nil {
		return ErrNoContext
	}
	ops := ctx.Sec().Policy().Client()

	payload := repBuf[offset+msgHeaderLen:]
	var out []byte
	switch service {
	case flavor.ServiceNull, flavor.ServiceAuth, flavor.ServiceIntegrity:
		out, err = ops.Verify(ctx.Private(), payload)
	case flavor.ServicePrivacy:
		out, err = ops.Unseal(ctx.Private(), payload)
	default:
		return ErrInvariant
	}
	if err != nil {
		return &PipelineError{Op: "unwrap_reply", Class: "EACCES", Message: "policy transform failed", Cause: err}
	}

	req.mu.Lock()
	req.decoded = true
	req.swabbed = swabbed
	req.decodedBody = out
	req.mu.Unlock()
	return nil
}
