package rpcpipeline

import "sync"

// EarlyReq is the scratch request an early (out-of-order, short)
// reply is decoded into, so the live receive buffer can keep churning
// while the caller inspects it (spec section 4.D "unwrap_early_reply").
type EarlyReq struct {
	scratch *Request
}

// Body returns the decoded early reply body.
func (e *EarlyReq) Body() []byte { return e.scratch.DecodedBody() }

// earlyReqPool recycles the scratch Request/buffer pair backing
// EarlyReq, since early replies are expected on the hot path of
// every adaptive-timeout-aware RPC (spec section 4.D).
var earlyReqPool = sync.Pool{
	New: func() any { return &Request{interrupted: make(chan struct{})} },
}

// UnwrapEarlyReply copies req's current reply bytes (rounded up to 8
// bytes) into a pooled scratch request and decodes it there. expectedSize
// must equal the rounded-up copy size exactly; any drift is reported as
// ErrEarlyReplySizeDrift (spec section 4.D: "size must match exactly;
// any drift fails with invalid or already").
func UnwrapEarlyReply(req *Request, expectedSize int) (*EarlyReq, error) {
	req.mu.Lock()
	repBuf := req.repBuf
	offset := req.replyOffset
	ctx := req.ctx
	req.mu.Unlock()

	if len(repBuf) == 0 {
		return nil, ErrNoReply
	}

	size := align8(len(repBuf))
	if size != expectedSize {
		return nil, ErrEarlyReplySizeDrift
	}

	scratch := earlyReqPool.Get().(*Request)
	scratch.flavor = req.flavor
	scratch.cred = req.cred
	scratch.imp = req.imp
	scratch.ctx = ctx
	scratch.atSupport = req.atSupport
	scratch.decoded = false
	scratch.swabbed = false
	scratch.decodedBody = nil

	scratchBuf := make([]byte, size)
	copy(scratchBuf, repBuf)
	scratch.repBuf = scratchBuf
	scratch.replyOffset = offset

	if err := UnwrapReply(scratch); err != nil {
		earlyReqPool.Put(scratch)
		return nil, err
	}

	return &EarlyReq{scratch: scratch}, nil
}

// FinishEarlyReply releases the scratch request backing er, returning
// it to the pool (spec section 4.D "the caller must finish_early_reply
// to release").
func FinishEarlyReply(er *EarlyReq) {
	if er == nil || er.scratch == nil {
		return
	}
	s := er.scratch
	er.scratch = nil
	s.repBuf = nil
	s.decodedBody = nil
	earlyReqPool.Put(s)
}
