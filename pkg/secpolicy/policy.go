// Package secpolicy implements component A of the security layer: the
// process-wide policy registry. A Policy is a named transformation
// family (e.g. a shared-key integrity mechanism) that knows how to
// build a security context and its per-user client contexts; concrete
// cryptographic mechanisms are out of scope (spec.md section 1) — this
// package specifies only the interface they implement.
package secpolicy

import "github.com/clusterfs/rpcsec/pkg/flavor"

// Cred is the caller identity a client context is built for (spec
// section 4.C's vfs_cred: effective uid/gid of the calling process).
type Cred struct {
	UID uint32
	GID uint32
}

// Part identifies which role a Sec plays (spec section 3 "part").
type Part uint8

const (
	PartClient Part = iota
	PartServer
	PartReverse
)

// SecPrivate is a policy's opaque per-Sec state. The generic Sec
// wrapper (package sec) never inspects it; it only ever hands it back
// to the Policy that produced it.
type SecPrivate any

// CliCtxPrivate is a policy's opaque per-CliCtx state.
type CliCtxPrivate any

// ClientOps is the contract every policy's client-side transformation
// family must implement (spec section 3 "Policy", "Client ops").
type ClientOps interface {
	// CreateSecContext builds policy-private per-Sec state. importName
	// identifies the bound import; svcCtx is non-nil only when building
	// a reverse sec, in which case its policy-private fields (not
	// specified here — out of scope, see spec.md section 1) drive
	// mechanism selection.
	CreateSecContext(importName string, svcCtx any, f flavor.Flavor, part Part) (SecPrivate, error)

	// DestroySecContext releases sp. Called once the Sec's refcount
	// reaches zero.
	DestroySecContext(sp SecPrivate)

	// KillSecContext marks sp as dying: existing contexts keep working
	// until their requests complete, but no new context may be created.
	KillSecContext(sp SecPrivate)

	// LookupCtx returns the client context for cred, creating one if
	// create is true and none exists, and discarding a dead one first
	// if removeDead is true.
	LookupCtx(sp SecPrivate, cred Cred, create, removeDead bool) (CliCtxPrivate, error)

	// ReleaseCtx drops the caller's reference on cp.
	ReleaseCtx(sp SecPrivate, cp CliCtxPrivate)

	// FlushCtxCache flushes the context cache. uid == -1 means "all
	// users"; grace lets contexts with pending requests drain; force
	// kills them outright regardless.
	FlushCtxCache(sp SecPrivate, uid int64, grace, force bool)

	// Sign appends an integrity checksum to msg (service classes NULL,
	// AUTH, INTG).
	Sign(cp CliCtxPrivate, msg []byte) ([]byte, error)

	// Seal encrypts msg (service class PRIV).
	Seal(cp CliCtxPrivate, msg []byte) ([]byte, error)

	// Verify checks and strips the integrity checksum produced by Sign.
	Verify(cp CliCtxPrivate, msg []byte) ([]byte, error)

	// Unseal decrypts a message produced by Seal.
	Unseal(cp CliCtxPrivate, msg []byte) ([]byte, error)

	// AllocReqBuf/FreeReqBuf/AllocRepBuf/FreeRepBuf manage wire buffers
	// sized for this policy's framing overhead.
	AllocReqBuf(sp SecPrivate, size int) ([]byte, error)
	FreeReqBuf(sp SecPrivate, buf []byte)
	AllocRepBuf(sp SecPrivate, size int) ([]byte, error)
	FreeRepBuf(sp SecPrivate, buf []byte)

	// EnlargeReqBuf grows buf to at least newSize, preserving its
	// prefix, for the request pipeline's enlarge_reqbuf operation.
	EnlargeReqBuf(sp SecPrivate, buf []byte, newSize int) ([]byte, error)

	// Validate reports whether cp is currently usable without a
	// refresh round-trip.
	Validate(cp CliCtxPrivate) bool

	// Die forcibly marks cp dead.
	Die(cp CliCtxPrivate)
}

// ServerOps is the contract a policy's server-side half implements
// (spec section 3 "Server ops").
type ServerOps interface {
	Accept(req []byte) error
	Authorize(req []byte) error
	AllocRS(size int) ([]byte, error)
	FreeRS(buf []byte)
}

// Refresher is an optional capability: policies whose contexts need an
// asynchronous upcall (e.g. a GSS token exchange) implement it. A
// policy without this capability (e.g. null) is treated as always
// up-to-date — "absent optional hooks mean no transformation"
// (spec.md section 9).
type Refresher interface {
	Refresh(cp CliCtxPrivate) error
}

// GCer is an optional capability for policies that want to participate
// in idle-context garbage collection. GC scheduling itself is out of
// scope (spec.md section 1); this only exposes the hook a scheduler
// external to this package may call.
type GCer interface {
	GCCtx(sp SecPrivate)
}

// BulkWrapper is an optional capability for policies that protect bulk
// I/O independently of the RPC body (spec section 4.D).
type BulkWrapper interface {
	WrapBulk(cp CliCtxPrivate, bulk []byte) ([]byte, error)
	UnwrapBulk(cp CliCtxPrivate, bulk []byte) ([]byte, error)
}

// RctxInstaller is an optional capability for policies that install a
// reverse context derived from an incoming request (spec section 4.E
// step 4, GSS root init).
type RctxInstaller interface {
	InstallRctx(sp SecPrivate, req []byte) error
}

// Displayer is an optional capability for human-readable diagnostics.
type Displayer interface {
	Display(sp SecPrivate) string
}

// Policy is a registered security policy: its identity plus the client
// and (optionally, for a pure-client build) server operation sets.
type Policy interface {
	// Name is the policy's immutable, human-readable name.
	Name() string

	// Number is the wire-policy number this Policy registers under.
	Number() flavor.PolicyNumber

	// Module is an opaque token identifying the owning module; the
	// registry uses it to prevent unregistration while a reference to
	// the policy's loader is outstanding (spec section 4.A).
	Module() string

	// Client returns the client-side operation set.
	Client() ClientOps

	// Server returns the server-side operation set, or nil if this
	// build only implements the client half.
	Server() ServerOps
}
