// Package flavorgate implements component E of the security layer:
// the server-side per-target flavor gate (spec.md section 4.E
// "target_export_check"). A gate remembers the currently accepted
// flavor plus up to two historical ones, each good for a bounded
// grace window after a rotation, so that in-flight clients using the
// just-superseded flavor are not rejected mid-conversation.
//
// Rotation is staged, not eager: a configuration change only records
// the new flavor as pending (the `changed` edge flag, spec section
// 4.E). The swap into the currently accepted flavor happens only when
// a live request actually arrives bearing that pending flavor — until
// then, the export keeps accepting the flavor already in effect.
package flavorgate

import (
	"fmt"
	"sync"
	"time"

	"github.com/clusterfs/rpcsec/pkg/flavor"
)

// historicFlavor is one entry in the two-slot rotation history.
type historicFlavor struct {
	flavor    flavor.Flavor
	expiresAt time.Time
	valid     bool
}

func (h historicFlavor) remaining(now time.Time) time.Duration {
	if !h.valid {
		return 0
	}
	if d := h.expiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ReverseCtxInstaller is the hook Check invokes when a GSS root-init
// request is accepted against the current flavor, or confirms a
// staged rotation, letting the caller build or refresh the reverse Sec
// it uses to call back the request's originator (spec section 4.E
// step 3 "optionally trigger reverse-sec adapt", step 4a "install a
// reverse ctx").
type ReverseCtxInstaller func(f flavor.Flavor) error

// Gate is the rotation state machine for a single server-side export
// target (spec section 4.E). Zero value is not usable; use NewGate.
type Gate struct {
	mu sync.Mutex

	current flavor.Flavor
	haveCur bool
	old     [2]historicFlavor

	changed bool // spec section 4.E edge flag: a config change staged `pending`
	pending flavor.Flavor

	graceWindow time.Duration

	// hasReverseImport reports whether this export has a reverse
	// import at all. Exports that don't are transparent: Check always
	// accepts without consulting any flavor state (spec section 4.E
	// step 1, "exports without a reverse import are transparent").
	hasReverseImport bool
}

// NewGate creates a gate with no accepted flavor yet and grace as the
// lifetime a superseded flavor remains acceptable after a rotation
// (spec section 4.E, section 12 "FlavorExpiry"). The gate is assumed
// to guard an export with a reverse import; call SetReverseImport(false)
// for an export that has none.
func NewGate(grace time.Duration) *Gate {
	return &Gate{graceWindow: grace, hasReverseImport: true}
}

// SetReverseImport marks whether this export proxies credentials back
// to a client via a reverse import (spec section 4.E step 1).
func (g *Gate) SetReverseImport(has bool) {
	g.mu.Lock()
	g.hasReverseImport = has
	g.mu.Unlock()
}

// Stage records newFlavor as the pending flavor following a
// configuration change, without making it current yet: the currently
// accepted flavor stays in effect until a live request actually
// arrives bearing newFlavor (spec section 4.E's `changed` edge flag).
// The first flavor a gate ever sees has nothing to stage against and
// becomes current immediately. If newFlavor already matches the
// current flavor, Stage is a no-op.
func (g *Gate) Stage(newFlavor flavor.Flavor) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.haveCur {
		g.current = newFlavor
		g.haveCur = true
		return
	}
	if g.current.Equal(newFlavor) {
		g.changed = false
		return
	}

	g.changed = true
	g.pending = newFlavor
}

// Result is the outcome of a Check call.
type Result struct {
	// Accept reports whether the request's flavor is currently acceptable.
	Accept bool
	// Changed reports whether the request just confirmed a staged
	// rotation, or matched a historical (not the current) flavor —
	// either way, the caller should be told to adapt.
	Changed bool
	// Diagnostic is a human-readable explanation, including the
	// remaining lifetime of any historical flavor involved (spec
	// section 7, "diagnostic messages... historical flavor remaining
	// lifetimes").
	Diagnostic string
}

// CheckRequest carries the per-request facts target_export_check needs
// beyond the wire flavor itself (spec section 4.E steps 2 and 4a).
type CheckRequest struct {
	Flavor flavor.Flavor
	// ContextFini marks a context-destroy RPC, which always passes
	// regardless of flavor (spec section 4.E step 2).
	ContextFini bool
	// GSSRootInit marks a GSS root-init request, which may install a
	// reverse ctx when accepted (spec section 4.E steps 3-4a).
	GSSRootInit bool
}

// Check reports whether req is acceptable against the gate's current
// rotation state at time now, expiring historical entries that have
// aged out (spec section 4.E "target_export_check"). install is
// consulted only for a GSSRootInit request that is accepted; it may be
// nil.
func (g *Gate) Check(req CheckRequest, now time.Time, install ReverseCtxInstaller) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasReverseImport {
		return Result{Accept: true, Diagnostic: "export has no reverse import, flavor gate is transparent"}
	}
	if req.ContextFini {
		return Result{Accept: true, Diagnostic: "context-fini RPC always passes"}
	}

	g.expireLocked(now)

	if g.changed && req.Flavor.Equal(g.pending) {
		// Confirmed rotation (step 3): a live request carrying the
		// staged flavor is what actually swaps it in as current.
		g.old[0] = historicFlavor{flavor: g.current, expiresAt: now.Add(g.graceWindow), valid: true}
		g.old[1] = historicFlavor{}
		g.current = g.pending
		g.haveCur = true
		g.changed = false
		g.pending = flavor.Flavor{}

		if req.GSSRootInit {
			if err := g.installLocked(install, now); err != nil {
				return Result{Accept: false, Diagnostic: fmt.Sprintf("reverse ctx install failed: %v", err)}
			}
		}
		return Result{Accept: true, Changed: true, Diagnostic: "flavor matched staged rotation, now current"}
	}

	if g.haveCur && g.current.Equal(req.Flavor) {
		if req.GSSRootInit {
			if err := g.installLocked(install, now); err != nil {
				return Result{Accept: false, Diagnostic: fmt.Sprintf("reverse ctx install failed: %v", err)}
			}
		}
		return Result{Accept: true, Diagnostic: "flavor matches current"}
	}

	for i, h := range g.old {
		if h.valid && h.flavor.Equal(req.Flavor) {
			return Result{
				Accept:     true,
				Changed:    true,
				Diagnostic: fmt.Sprintf("flavor matches historical slot %d, %s remaining before expiry", i, h.remaining(now)),
			}
		}
	}

	return Result{Accept: false, Diagnostic: g.diagnosticLocked(now)}
}

func (g *Gate) installLocked(install ReverseCtxInstaller, now time.Time) error {
	if install == nil {
		return nil
	}
	return install(g.current)
}

func (g *Gate) expireLocked(now time.Time) {
	for i := range g.old {
		if g.old[i].valid && !now.Before(g.old[i].expiresAt) {
			g.old[i] = historicFlavor{}
		}
	}
}

func (g *Gate) diagnosticLocked(now time.Time) string {
	msg := "flavor not accepted"
	for i, h := range g.old {
		if h.valid {
			msg += fmt.Sprintf("; historical slot %d has %s remaining", i, h.remaining(now))
		}
	}
	return msg
}

// Current returns the currently accepted flavor and whether one has
// been set at all.
func (g *Gate) Current() (flavor.Flavor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.haveCur
}

// Pending returns the staged flavor and whether a rotation is pending
// confirmation (the `changed` edge flag).
func (g *Gate) Pending() (flavor.Flavor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.changed
}
