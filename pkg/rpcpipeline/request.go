package rpcpipeline

import (
	"sync"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/sec"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// BulkDesc describes a request's independently-protected bulk I/O
// (spec section 4.D "if the request has a bulk descriptor and
// pack_bulk, invoke wrap_bulk before body wrap").
type BulkDesc struct {
	Data     []byte
	PackBulk bool
}

// Request is one outbound RPC as it moves through the wrap/unwrap
// pipeline. It implements sec.RequestHandle so sec.Refresh can operate
// on it without this package creating an import cycle back into
// package sec.
//
// The request lock (mu) protects Interrupted/err/resent/restart-ish
// fields; the ctx lock inside package sec protects waiter-list state.
// Per spec section 4.C's ordering guarantee, code in this package must
// never acquire a CliCtx's internal lock itself — it only calls
// exported CliCtx/Sec methods — so there is no nesting order to get
// wrong here.
type Request struct {
	imp    *sec.Import
	flavor flavor.Flavor
	cred   secpolicy.Cred

	reqBuf []byte // allocated request buffer (capacity = alloc_reqbuf size)
	repBuf []byte // raw reply bytes received off the wire

	bulk *BulkDesc

	atSupport bool // MSGHDR_AT_SUPPORT advertised by this request

	mu          sync.Mutex
	ctx         *sec.CliCtx
	resent      bool
	interrupted chan struct{}

	decoded     bool
	swabbed     bool
	decodedBody []byte
	replyOffset int
}

// NewRequest creates a request bound for imp, to be wrapped under
// flavor f on behalf of cred.
func NewRequest(imp *sec.Import, f flavor.Flavor, cred secpolicy.Cred, reqBuf []byte) *Request {
	return &Request{
		imp:         imp,
		flavor:      f,
		cred:        cred,
		reqBuf:      reqBuf,
		interrupted: make(chan struct{}),
	}
}

// sec.RequestHandle implementation.

func (r *Request) Import() *sec.Import      { return r.imp }
func (r *Request) Flavor() flavor.Flavor    { return r.flavor }
func (r *Request) Cred() secpolicy.Cred     { return r.cred }

func (r *Request) Ctx() *sec.CliCtx {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx
}

func (r *Request) SetCtx(c *sec.CliCtx) {
	r.mu.Lock()
	r.ctx = c
	r.mu.Unlock()
}

func (r *Request) Resent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resent
}

// SetResent marks the request as a retransmission (spec section 4.C
// step 7, RESENT flag).
func (r *Request) SetResent(v bool) {
	r.mu.Lock()
	r.resent = v
	r.mu.Unlock()
}

func (r *Request) Interrupted() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupted
}

// Interrupt signals any goroutine blocked in sec.Refresh for this
// request to abandon its wait (spec section 4.C step 9, "intr flag").
func (r *Request) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.interrupted:
	default:
		close(r.interrupted)
	}
}

// SetAdaptiveTimeoutSupport records whether this request advertises
// MSGHDR_AT_SUPPORT (spec section 4.D "unwrap_reply").
func (r *Request) SetAdaptiveTimeoutSupport(v bool) { r.atSupport = v }

// SetBulk attaches a bulk descriptor to be wrapped ahead of the body
// (spec section 4.D).
func (r *Request) SetBulk(b *BulkDesc) { r.bulk = b }

// SetReplyBytes installs the raw bytes received for this request's
// reply, at the given framing offset, ready for UnwrapReply or
// UnwrapEarlyReply.
func (r *Request) SetReplyBytes(buf []byte, offset int) {
	r.mu.Lock()
	r.repBuf = buf
	r.replyOffset = offset
	r.mu.Unlock()
}

// DecodedBody returns the plaintext reply body once UnwrapReply has
// succeeded.
func (r *Request) DecodedBody() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decodedBody
}

// Swabbed reports whether the reply unpacker detected a byte-swapped
// peer (spec section 4.D "set a per-request swabbed bit").
func (r *Request) Swabbed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swabbed
}
