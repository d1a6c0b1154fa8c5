package rpcpipeline

import (
	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// align8 rounds n up to the next multiple of 8.
func align8(n int) int {
	return (n + 7) &^ 7
}

// WrapRequest wraps req's body for the wire under its bound context's
// flavor (spec section 4.D "wrap_request"). A bulk descriptor, if
// present and marked to pack, is wrapped first via the policy's
// optional BulkWrapper capability. The returned bytes are always
// 8-byte aligned and never exceed req's allocated request buffer
// capacity.
func WrapRequest(req *Request) ([]byte, error) {
	ctx := req.Ctx()
	if ctx == nil {
		return nil, ErrNoContext
	}

	s := ctx.Sec()
	ops := s.Policy().Client()

	if req.bulk != nil && req.bulk.PackBulk {
		bw, ok := s.Policy().(secpolicy.BulkWrapper)
		if !ok {
			return nil, ErrBulkUnsupported
		}
		wrapped, err := bw.WrapBulk(ctx.Private(), req.bulk.Data)
		if err != nil {
			return nil, &PipelineError{Op: "wrap_request", Class: "EACCES", Message: "bulk wrap failed", Cause: err}
		}
		req.bulk.Data = wrapped
	}

	header := encodeMsgHeader(req.flavor)
	body := append(append([]byte(nil), header...), req.reqBuf...)

	var out []byte
	var err error
	switch req.flavor.Service {
	case flavor.ServiceNull, flavor.ServiceAuth, flavor.ServiceIntegrity:
		out, err = ops.Sign(ctx.Private(), body)
	case flavor.ServicePrivacy:
		out, err = ops.Seal(ctx.Private(), body)
	default:
		return nil, ErrInvariant
	}
	if err != nil {
		return nil, &PipelineError{Op: "wrap_request", Class: "EACCES", Message: "policy transform failed", Cause: err}
	}

	padded := align8(len(out))
	if padded != len(out) {
		out = append(out, make([]byte, padded-len(out))...)
	}

	if cap(req.reqBuf) > 0 && len(out) > cap(req.reqBuf) {
		return nil, ErrAlignment
	}

	return out, nil
}
