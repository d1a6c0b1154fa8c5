// Package testsec provides a shared in-memory null policy test double
// and a Harness that binds it to an import, for exercising the
// security layer (Sec/CliCtx lifecycle, the wrap/unwrap pipeline, the
// gRPC interceptor) without a real GSS/Kerberos or shared-key mechanism
// behind it. It has no transport double.
package testsec

import (
	"sync"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// Policy is a minimal in-memory secpolicy.Policy. Sign/Seal/Verify/Unseal
// are no-ops (messages pass through unchanged), matching the "null"
// policy's semantics (spec.md section 9: "absent optional hooks mean no
// transformation"). It records every lifecycle call it receives so
// tests can assert on Sec/CliCtx teardown ordering.
type Policy struct {
	PolicyName   string
	PolicyNumber flavor.PolicyNumber

	mu        sync.Mutex
	destroyed []secpolicy.SecPrivate
	killed    []secpolicy.SecPrivate
	released  []secpolicy.CliCtxPrivate
	died      []secpolicy.CliCtxPrivate
	flushed   int

	// ValidateFunc, when set, overrides Validate's always-true default.
	ValidateFunc func(cp secpolicy.CliCtxPrivate) bool

	// RefreshFunc, when set, is what Refresh calls; when nil, Refresh
	// reports success.
	RefreshFunc func(cp secpolicy.CliCtxPrivate) error
}

// New creates a null-mechanism test policy registered under num.
func New(name string, num flavor.PolicyNumber) *Policy {
	return &Policy{PolicyName: name, PolicyNumber: num}
}

func (p *Policy) Name() string               { return p.PolicyName }
func (p *Policy) Number() flavor.PolicyNumber { return p.PolicyNumber }
func (p *Policy) Module() string              { return p.PolicyName }
func (p *Policy) Client() secpolicy.ClientOps { return (*clientOps)(p) }
func (p *Policy) Server() secpolicy.ServerOps { return nil }

// Refresh implements secpolicy.Refresher when RefreshFunc is set.
func (p *Policy) Refresh(cp secpolicy.CliCtxPrivate) error {
	if p.RefreshFunc == nil {
		return nil
	}
	return p.RefreshFunc(cp)
}

// PrivCtx is the CliCtxPrivate value handed back by LookupCtx.
type PrivCtx struct {
	Cred secpolicy.Cred
}

// Destroyed/Killed/Released/Died/Flushed report recorded lifecycle
// calls for test assertions.
func (p *Policy) Destroyed() []secpolicy.SecPrivate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]secpolicy.SecPrivate(nil), p.destroyed...)
}

func (p *Policy) Killed() []secpolicy.SecPrivate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]secpolicy.SecPrivate(nil), p.killed...)
}

func (p *Policy) Released() []secpolicy.CliCtxPrivate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]secpolicy.CliCtxPrivate(nil), p.released...)
}

func (p *Policy) Died() []secpolicy.CliCtxPrivate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]secpolicy.CliCtxPrivate(nil), p.died...)
}

func (p *Policy) Flushed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushed
}

// clientOps is Policy viewed through secpolicy.ClientOps.
type clientOps Policy

func (c *clientOps) p() *Policy { return (*Policy)(c) }

func (c *clientOps) CreateSecContext(importName string, svcCtx any, f flavor.Flavor, part secpolicy.Part) (secpolicy.SecPrivate, error) {
	return "sec-private:" + importName, nil
}

func (c *clientOps) DestroySecContext(sp secpolicy.SecPrivate) {
	p := c.p()
	p.mu.Lock()
	p.destroyed = append(p.destroyed, sp)
	p.mu.Unlock()
}

func (c *clientOps) KillSecContext(sp secpolicy.SecPrivate) {
	p := c.p()
	p.mu.Lock()
	p.killed = append(p.killed, sp)
	p.mu.Unlock()
}

func (c *clientOps) LookupCtx(sp secpolicy.SecPrivate, cred secpolicy.Cred, create, removeDead bool) (secpolicy.CliCtxPrivate, error) {
	return &PrivCtx{Cred: cred}, nil
}

func (c *clientOps) ReleaseCtx(sp secpolicy.SecPrivate, cp secpolicy.CliCtxPrivate) {
	p := c.p()
	p.mu.Lock()
	p.released = append(p.released, cp)
	p.mu.Unlock()
}

func (c *clientOps) FlushCtxCache(sp secpolicy.SecPrivate, uid int64, grace, force bool) {
	p := c.p()
	p.mu.Lock()
	p.flushed++
	p.mu.Unlock()
}

func (c *clientOps) Sign(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error)   { return msg, nil }
func (c *clientOps) Seal(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error)   { return msg, nil }
func (c *clientOps) Verify(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error) { return msg, nil }
func (c *clientOps) Unseal(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error) { return msg, nil }

func (c *clientOps) AllocReqBuf(sp secpolicy.SecPrivate, size int) ([]byte, error) {
	return make([]byte, size), nil
}
func (c *clientOps) FreeReqBuf(sp secpolicy.SecPrivate, buf []byte) {}
func (c *clientOps) AllocRepBuf(sp secpolicy.SecPrivate, size int) ([]byte, error) {
	return make([]byte, size), nil
}
func (c *clientOps) FreeRepBuf(sp secpolicy.SecPrivate, buf []byte) {}

func (c *clientOps) EnlargeReqBuf(sp secpolicy.SecPrivate, buf []byte, newSize int) ([]byte, error) {
	out := make([]byte, newSize)
	copy(out, buf)
	return out, nil
}

func (c *clientOps) Validate(cp secpolicy.CliCtxPrivate) bool {
	p := c.p()
	if p.ValidateFunc != nil {
		return p.ValidateFunc(cp)
	}
	return true
}

func (c *clientOps) Die(cp secpolicy.CliCtxPrivate) {
	p := c.p()
	p.mu.Lock()
	p.died = append(p.died, cp)
	p.mu.Unlock()
}
