package sec

import (
	"sync"
	"sync/atomic"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// CtxFlag is a bitmask over CliCtx's lifecycle states (spec.md section
// 3 "CliCtx": NEW, UPTODATE, ERROR, DEAD, plus the two installation
// modes REVERSE and ETERNAL). Unlike a single enum, flags let REVERSE
// and ETERNAL compose with the four mutually exclusive lifecycle bits.
type CtxFlag uint32

const (
	CtxNew CtxFlag = 1 << iota
	CtxUptodate
	CtxError
	CtxDead
	CtxReverse
	CtxEternal
)

const lifecycleMask = CtxNew | CtxUptodate | CtxError | CtxDead

// CliCtx is a client context: the per-caller-credential binding under
// a Sec (spec.md section 3 "CliCtx"). Its lifecycle flag transitions
// out of NEW exactly once (to UPTODATE or ERROR), and it is retired
// (DEAD) either by explicit eviction or by a refresh timeout.
type CliCtx struct {
	sec     *Sec
	cred    secpolicy.Cred
	private secpolicy.CliCtxPrivate

	refs int32 // atomic

	mu         sync.Mutex
	flags      CtxFlag
	refreshing bool
	waiters    []chan struct{}
}

func newCliCtx(s *Sec, cred secpolicy.Cred, priv secpolicy.CliCtxPrivate, isNew bool) *CliCtx {
	flags := CtxUptodate
	if isNew {
		flags = CtxNew
	}
	if s.flavor.Policy == 0 { // PolicyNull: sink state, spec section 3 "ETERNAL"
		flags = CtxEternal
	}
	if s.flavor.Flags&flavor.FlagReverse != 0 {
		flags |= CtxReverse
	}
	return &CliCtx{
		sec:     s,
		cred:    cred,
		private: priv,
		refs:    0,
		flags:   flags,
	}
}

// Sec returns the Sec this context belongs to.
func (c *CliCtx) Sec() *Sec { return c.sec }

// Cred returns the caller credential this context was built for.
func (c *CliCtx) Cred() secpolicy.Cred { return c.cred }

// Private returns the policy-private per-context state.
func (c *CliCtx) Private() secpolicy.CliCtxPrivate { return c.private }

// Get takes an additional reference on c.
func (c *CliCtx) Get() { atomic.AddInt32(&c.refs, 1) }

// Put releases a reference; when it reaches zero the policy is told to
// release its private state (spec section 4.B "release_ctx").
func (c *CliCtx) Put() {
	if atomic.AddInt32(&c.refs, -1) == 0 {
		c.sec.policy.Client().ReleaseCtx(c.sec.private, c.private)
	}
}

func (c *CliCtx) flagsSnapshot() CtxFlag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// IsNew reports whether c has not yet completed its first refresh.
func (c *CliCtx) IsNew() bool { return c.flagsSnapshot()&CtxNew != 0 }

// IsUptodate reports whether c is currently usable without a refresh.
func (c *CliCtx) IsUptodate() bool { return c.flagsSnapshot()&CtxUptodate != 0 }

// IsError reports whether c is in a permanent failure state.
func (c *CliCtx) IsError() bool { return c.flagsSnapshot()&CtxError != 0 }

// IsDead reports whether c has been retired and must be replaced
// before any further request may use it.
func (c *CliCtx) IsDead() bool { return c.flagsSnapshot()&CtxDead != 0 }

// IsEternal reports whether c is the null-policy sink context, which
// never refreshes and is never replaced (spec section 3 "ETERNAL").
func (c *CliCtx) IsEternal() bool { return c.flagsSnapshot()&CtxEternal != 0 }

// IsReverse reports whether c was minted under a reverse Sec (spec
// section 3 "CliCtx" REVERSE bit, section 4.B "create").
func (c *CliCtx) IsReverse() bool { return c.flagsSnapshot()&CtxReverse != 0 }

// markDead transitions c to DEAD and wakes anyone blocked waiting on
// it, regardless of its current lifecycle state (used by forced
// FlushCtxCache and by the refresh timeout path).
func (c *CliCtx) markDead() {
	c.mu.Lock()
	c.flags = (c.flags &^ lifecycleMask) | CtxDead
	c.wakeLocked()
	c.mu.Unlock()
	c.sec.policy.Client().Die(c.private)
}

// wakeLocked closes every pending waiter channel and clears the list.
// Must be called with c.mu held.
func (c *CliCtx) wakeLocked() {
	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// addWaiter registers a channel that will be closed the next time c's
// lifecycle flags change, used by Refresh to block until another
// goroutine's in-flight upcall resolves (spec section 4.C step 9).
func (c *CliCtx) addWaiter() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	return ch
}

// runRefresh performs the single up-to-date transition for a NEW
// context: exactly one goroutine calls the policy's Refresher hook (if
// present) per NEW->{UPTODATE,ERROR} transition; concurrent callers
// observe refreshing == true and fall through to waiting instead
// (spec section 4.C step 4, "assert state is no longer NEW"). A context
// marked DEAD while the upcall ran stays DEAD.
func (c *CliCtx) runRefresh() {
	c.mu.Lock()
	if c.refreshing || c.flags&CtxNew == 0 {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	var err error
	if r, ok := c.sec.policy.(secpolicy.Refresher); ok {
		err = r.Refresh(c.private)
	}

	c.mu.Lock()
	c.refreshing = false
	if c.flags&CtxDead == 0 {
		next := CtxUptodate
		if err != nil {
			next = CtxError
		}
		c.flags = (c.flags &^ lifecycleMask) | next
	}
	c.wakeLocked()
	c.mu.Unlock()
}
