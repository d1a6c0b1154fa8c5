package sec

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// Sec is a client-side security object (spec.md section 3 "Sec"): the
// per-import, per-flavor binding under which one CliCtx is minted per
// distinct caller credential. A Sec is born with Part == PartClient
// (or PartReverse, for a reverse sec built from a SvcCtx), ages while
// its import's flavor stays put, and is killed and replaced the moment
// the import adapts to a new flavor.
type Sec struct {
	policy secpolicy.Policy
	flavor flavor.Flavor
	part   secpolicy.Part
	impName string

	private secpolicy.SecPrivate

	refs  int32 // atomic
	dying atomic.Bool

	gcInterval time.Duration
	rpcCount   atomic.Int64

	ctxMu    sync.Mutex
	ctxCache map[credKey]*CliCtx

	sepol sepolCache
}

type credKey struct {
	uid uint32
	gid uint32
}

// NewSec builds a Sec directly from policy-private state already
// produced by a Policy's CreateSecContext. Most callers want CreateSec
// (or NewReverse, for a reverse sec) instead.
func NewSec(p secpolicy.Policy, f flavor.Flavor, part secpolicy.Part, impName string, private secpolicy.SecPrivate, gcInterval time.Duration) *Sec {
	return &Sec{
		policy:     p,
		flavor:     f,
		part:       part,
		impName:    impName,
		private:    private,
		refs:       1,
		gcInterval: gcInterval,
		ctxCache:   make(map[credKey]*CliCtx),
	}
}

// CreateSec resolves f's policy, asks it to build per-Sec private
// state, installs the result onto imp (killing whatever Sec was
// previously bound), and returns the new Sec holding the one reference
// imp itself counts as (spec section 4.B "create").
//
// When svcCtx is a non-nil *SvcCtx, this builds a reverse sec instead:
// the policy comes from svcCtx.Policy rather than a registry lookup,
// f is forced to carry FlagReverse|FlagRootOnly, and part is forced to
// PartReverse, regardless of the part argument (spec section 3
// "Reverse Sec", section 4.B "create": "the policy is taken from
// SvcCtx.sc_policy and the flavor is forced to carry REVERSE |
// ROOTONLY bits"). registry may be nil in that case.
//
// secExpire, if positive, arms imp's imp_sec_expire deadline so a
// later ImportSecValidateGet call will attempt to re-adapt this same
// binding before handing it back (spec section 3 "bound import",
// section 4.C step 1). Zero disarms it.
func CreateSec(imp *Import, registry *secpolicy.Registry, svcCtx any, f flavor.Flavor, part secpolicy.Part, gcInterval, secExpire time.Duration) (*Sec, error) {
	var p secpolicy.Policy
	if sc, ok := svcCtx.(*SvcCtx); ok && sc != nil {
		p = sc.Policy
		f = f.WithFlags(flavor.FlagReverse | flavor.FlagRootOnly)
		part = secpolicy.PartReverse
	} else {
		var err error
		p, err = registry.Lookup(f)
		if err != nil {
			return nil, &SecError{Op: "create", Message: "policy lookup failed", Cause: err}
		}
	}

	priv, err := p.Client().CreateSecContext(imp.Name, svcCtx, f, part)
	if err != nil {
		return nil, &SecError{Op: "create", Message: "policy refused to create a security context", Cause: err}
	}

	s := NewSec(p, f, part, imp.Name, priv, gcInterval)

	old := imp.CurrentSec()
	imp.setSec(s)
	if secExpire > 0 {
		imp.ArmExpire(time.Now().Add(secExpire), func() error {
			return Adapt(imp, registry, svcCtx, f, part, gcInterval, secExpire)
		})
	} else {
		imp.ArmExpire(time.Time{}, nil)
	}
	if old != nil {
		old.kill()
		old.Put()
	}

	return s, nil
}

// NewReverse builds a reverse Sec on imp: a Sec the server side uses
// to call back the request's originator using credentials taken from
// the request, bound to svcCtx's own policy and forced to carry
// REVERSE|ROOTONLY (spec section 3 "Reverse Sec", section 4.B
// "create"). It is CreateSec with svcCtx always non-nil and part
// always PartReverse.
func NewReverse(imp *Import, svcCtx *SvcCtx, f flavor.Flavor, gcInterval, secExpire time.Duration) (*Sec, error) {
	if svcCtx == nil {
		return nil, &SecError{Op: "create", Message: "reverse sec requires a non-nil SvcCtx"}
	}
	return CreateSec(imp, nil, svcCtx, f, secpolicy.PartReverse, gcInterval, secExpire)
}

// Adapt installs a new Sec on imp if newFlavor differs from its
// currently bound flavor; it is a no-op otherwise (spec section 4.B
// "adapt"). Concurrent Adapt calls for the same import are serialized
// so only one CreateSecContext call happens per flavor transition.
func Adapt(imp *Import, registry *secpolicy.Registry, svcCtx any, newFlavor flavor.Flavor, part secpolicy.Part, gcInterval, secExpire time.Duration) error {
	if cur := imp.CurrentSec(); cur != nil && cur.flavor.Equal(newFlavor) {
		rearmExpire(imp, registry, svcCtx, newFlavor, part, gcInterval, secExpire)
		return nil
	}

	imp.secMu.Lock()
	defer imp.secMu.Unlock()

	if cur := imp.CurrentSec(); cur != nil && cur.flavor.Equal(newFlavor) {
		rearmExpire(imp, registry, svcCtx, newFlavor, part, gcInterval, secExpire)
		return nil
	}

	if _, err := CreateSec(imp, registry, svcCtx, newFlavor, part, gcInterval, secExpire); err != nil {
		return &SecError{Op: "adapt", Message: "adaptation failed", Cause: ErrAdaptFailed}
	}
	return nil
}

// rearmExpire pushes imp's imp_sec_expire deadline back out after a
// no-op Adapt (flavor unchanged), so a stale deadline doesn't force
// every subsequent ImportSecValidateGet call to re-run adaptFn.
func rearmExpire(imp *Import, registry *secpolicy.Registry, svcCtx any, f flavor.Flavor, part secpolicy.Part, gcInterval, secExpire time.Duration) {
	if secExpire <= 0 {
		return
	}
	imp.ArmExpire(time.Now().Add(secExpire), func() error {
		return Adapt(imp, registry, svcCtx, f, part, gcInterval, secExpire)
	})
}

// Flavor reports the wire flavor this Sec was created for.
func (s *Sec) Flavor() flavor.Flavor { return s.flavor }

// Part reports whether this Sec is a client, server, or reverse sec.
func (s *Sec) Part() secpolicy.Part { return s.part }

// Policy returns the policy this Sec was created under.
func (s *Sec) Policy() secpolicy.Policy { return s.policy }

// Private returns the policy-private per-Sec state.
func (s *Sec) Private() secpolicy.SecPrivate { return s.private }

// Dying reports whether kill has been called on this Sec.
func (s *Sec) Dying() bool { return s.dying.Load() }

// Get takes an additional reference on s.
func (s *Sec) Get() { atomic.AddInt32(&s.refs, 1) }

// Put releases a reference; when the last reference drops, the Sec's
// policy-private state is destroyed (spec section 4.B "destroy").
func (s *Sec) Put() {
	if atomic.AddInt32(&s.refs, -1) == 0 {
		s.policy.Client().DestroySecContext(s.private)
	}
}

// kill marks s dying and force-flushes its context cache: existing
// contexts are evicted from the cache (so no new request will pick
// them up) but objects a request currently holds a reference to keep
// working until that request's own Put call (spec section 4.B "kill",
// 3 "context cache").
func (s *Sec) kill() {
	if !s.dying.CompareAndSwap(false, true) {
		return
	}
	s.policy.Client().KillSecContext(s.private)
	s.FlushCtxCache(-1, true, true)
}

// FlushCtxCache evicts cached client contexts from s. uid == -1 means
// every user; grace lets a context with no pending waiters die
// quietly, force marks it dead even if requests are still in flight
// against it (spec section 3 "context cache").
func (s *Sec) FlushCtxCache(uid int64, grace, force bool) {
	s.ctxMu.Lock()
	victims := make([]*CliCtx, 0, len(s.ctxCache))
	for k, c := range s.ctxCache {
		if uid >= 0 && uint32(uid) != k.uid {
			continue
		}
		victims = append(victims, c)
		delete(s.ctxCache, k)
	}
	s.ctxMu.Unlock()

	if force {
		for _, c := range victims {
			c.markDead()
		}
	}
	s.policy.Client().FlushCtxCache(s.private, uid, grace, force)
}

// GetMyCtx returns the CliCtx for cred under s, creating one via the
// policy's LookupCtx if none is cached yet (spec section 4.C step "get
// my ctx"). A caller that gets a non-nil CliCtx back holds a reference
// on it and must call Put when done.
func (s *Sec) GetMyCtx(cred secpolicy.Cred) (*CliCtx, error) {
	create := true
	removeDead := true

	if s.flavor.Flags&flavor.FlagReverse != 0 && s.flavor.Flags&flavor.FlagRootOnly != 0 {
		cred = secpolicy.Cred{}
		create = false
		removeDead = false
	}

	priv, err := s.policy.Client().LookupCtx(s.private, cred, create, removeDead)
	if err != nil {
		return nil, &SecError{Op: "get_my_ctx", Message: "lookup failed", Cause: err}
	}

	k := credKey{uid: cred.UID, gid: cred.GID}
	s.ctxMu.Lock()
	c, ok := s.ctxCache[k]
	if !ok {
		c = newCliCtx(s, cred, priv, true)
		s.ctxCache[k] = c
	}
	s.ctxMu.Unlock()

	c.Get()
	return c, nil
}

// replaceCtx discards a dead cache entry for cred and installs a fresh
// NEW one in its place, returning the new CliCtx with a reference held
// (spec section 4.C step 8, "ctx dead: replace and retry").
func (s *Sec) replaceCtx(cred secpolicy.Cred) (*CliCtx, error) {
	priv, err := s.policy.Client().LookupCtx(s.private, cred, true, true)
	if err != nil {
		return nil, &SecError{Op: "replace_ctx", Message: "lookup failed", Cause: err}
	}

	k := credKey{uid: cred.UID, gid: cred.GID}
	s.ctxMu.Lock()
	c := newCliCtx(s, cred, priv, true)
	s.ctxCache[k] = c
	s.ctxMu.Unlock()

	c.Get()
	return c, nil
}
