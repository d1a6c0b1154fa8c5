package nullpolicy

import (
	"fmt"
	"sync"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// Name is the policy's registered name.
const Name = "null"

// Policy is the null mechanism's secpolicy.Policy.
type Policy struct {
	mu    sync.Mutex
	count int // live Sec count, for Display
}

// New creates the null policy, registered under flavor.PolicyNull.
func New() *Policy { return &Policy{} }

func (p *Policy) Name() string               { return Name }
func (p *Policy) Number() flavor.PolicyNumber { return flavor.PolicyNull }
func (p *Policy) Module() string              { return "nullpolicy" }
func (p *Policy) Client() secpolicy.ClientOps { return (*clientOps)(p) }
func (p *Policy) Server() secpolicy.ServerOps { return nil }

// Display reports how many Secs this policy currently backs.
func (p *Policy) Display(sp secpolicy.SecPrivate) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("null mechanism, no credential material, %d live sec(s)", p.count)
}

type clientOps Policy

func (c *clientOps) p() *Policy { return (*Policy)(c) }

func (c *clientOps) CreateSecContext(importName string, svcCtx any, f flavor.Flavor, part secpolicy.Part) (secpolicy.SecPrivate, error) {
	p := c.p()
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	return importName, nil
}

func (c *clientOps) DestroySecContext(sp secpolicy.SecPrivate) {
	p := c.p()
	p.mu.Lock()
	p.count--
	p.mu.Unlock()
}

func (c *clientOps) KillSecContext(sp secpolicy.SecPrivate) {}

func (c *clientOps) LookupCtx(sp secpolicy.SecPrivate, cred secpolicy.Cred, create, removeDead bool) (secpolicy.CliCtxPrivate, error) {
	return cred, nil
}

func (c *clientOps) ReleaseCtx(sp secpolicy.SecPrivate, cp secpolicy.CliCtxPrivate) {}

func (c *clientOps) FlushCtxCache(sp secpolicy.SecPrivate, uid int64, grace, force bool) {}

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

// Validate always reports true: the null context has nothing to
// revalidate (spec.md section 9 "absent optional hooks mean no
// transformation"; this mechanism has no Refresher either, so CliCtx
// is born ETERNAL and Validate's result here is never actually
// consulted by sec.Refresh for it).
func (c *clientOps) Validate(cp secpolicy.CliCtxPrivate) bool { return true }

func (c *clientOps) Die(cp secpolicy.CliCtxPrivate) {}
