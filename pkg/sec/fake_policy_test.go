package sec

import (
	"sync"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// fakePolicy is a minimal in-memory Policy used by this package's own
// tests. refreshFunc, when set, makes the policy a secpolicy.Refresher;
// validateFunc controls what Validate reports for a given private ctx.
type fakePolicy struct {
	name   string
	number flavor.PolicyNumber

	mu          sync.Mutex
	destroyed   []secpolicy.SecPrivate
	killed      []secpolicy.SecPrivate
	released    []secpolicy.CliCtxPrivate
	died        []secpolicy.CliCtxPrivate
	flushed     int

	refreshFunc  func(cp secpolicy.CliCtxPrivate) error
	validateFunc func(cp secpolicy.CliCtxPrivate) bool
}

func (p *fakePolicy) Name() string               { return p.name }
func (p *fakePolicy) Number() flavor.PolicyNumber { return p.number }
func (p *fakePolicy) Module() string              { return p.name }
func (p *fakePolicy) Client() secpolicy.ClientOps { return (*fakeClientOps)(p) }
func (p *fakePolicy) Server() secpolicy.ServerOps { return nil }

type fakePrivCtx struct {
	cred secpolicy.Cred
}

// fakeClientOps is fakePolicy viewed through secpolicy.ClientOps.
type fakeClientOps fakePolicy

func (c *fakeClientOps) p() *fakePolicy { return (*fakePolicy)(c) }

func (c *fakeClientOps) CreateSecContext(importName string, svcCtx any, f flavor.Flavor, part secpolicy.Part) (secpolicy.SecPrivate, error) {
	return "sec-private:" + importName, nil
}

func (c *fakeClientOps) DestroySecContext(sp secpolicy.SecPrivate) {
	p := c.p()
	p.mu.Lock()
	p.destroyed = append(p.destroyed, sp)
	p.mu.Unlock()
}

func (c *fakeClientOps) KillSecContext(sp secpolicy.SecPrivate) {
	p := c.p()
	p.mu.Lock()
	p.killed = append(p.killed, sp)
	p.mu.Unlock()
}

func (c *fakeClientOps) LookupCtx(sp secpolicy.SecPrivate, cred secpolicy.Cred, create, removeDead bool) (secpolicy.CliCtxPrivate, error) {
	return &fakePrivCtx{cred: cred}, nil
}

func (c *fakeClientOps) ReleaseCtx(sp secpolicy.SecPrivate, cp secpolicy.CliCtxPrivate) {
	p := c.p()
	p.mu.Lock()
	p.released = append(p.released, cp)
	p.mu.Unlock()
}

func (c *fakeClientOps) FlushCtxCache(sp secpolicy.SecPrivate, uid int64, grace, force bool) {
	p := c.p()
	p.mu.Lock()
	p.flushed++
	p.mu.Unlock()
}

func (c *fakeClientOps) Sign(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error)   { return msg, nil }
func (c *fakeClientOps) Seal(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error)   { return msg, nil }
func (c *fakeClientOps) Verify(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error) { return msg, nil }
func (c *fakeClientOps) Unseal(cp secpolicy.CliCtxPrivate, msg []byte) ([]byte, error) { return msg, nil }

func (c *fakeClientOps) AllocReqBuf(sp secpolicy.SecPrivate, size int) ([]byte, error) {
	return make([]byte, size), nil
}
func (c *fakeClientOps) FreeReqBuf(sp secpolicy.SecPrivate, buf []byte) {}
func (c *fakeClientOps) AllocRepBuf(sp secpolicy.SecPrivate, size int) ([]byte, error) {
	return make([]byte, size), nil
}
func (c *fakeClientOps) FreeRepBuf(sp secpolicy.SecPrivate, buf []byte) {}

func (c *fakeClientOps) EnlargeReqBuf(sp secpolicy.SecPrivate, buf []byte, newSize int) ([]byte, error) {
	out := make([]byte, newSize)
	copy(out, buf)
	return out, nil
}

func (c *fakeClientOps) Validate(cp secpolicy.CliCtxPrivate) bool {
	p := c.p()
	if p.validateFunc != nil {
		return p.validateFunc(cp)
	}
	return true
}

func (c *fakeClientOps) Die(cp secpolicy.CliCtxPrivate) {
	p := c.p()
	p.mu.Lock()
	p.died = append(p.died, cp)
	p.mu.Unlock()
}

// refresherPolicy wraps fakePolicy so the Refresher type assertion in
// ctx.runRefresh only succeeds for policies that actually want it.
type refresherPolicy struct {
	*fakePolicy
}

func newRefresherPolicy(name string, num flavor.PolicyNumber, refresh func(secpolicy.CliCtxPrivate) error) *refresherPolicy {
	return &refresherPolicy{fakePolicy: &fakePolicy{name: name, number: num, refreshFunc: refresh}}
}

func (r *refresherPolicy) Client() secpolicy.ClientOps { return (*fakeClientOps)(r.fakePolicy) }

func (r *refresherPolicy) Refresh(cp secpolicy.CliCtxPrivate) error {
	return r.refreshFunc(cp)
}
