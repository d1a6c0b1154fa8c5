package sec

import (
	"time"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// RequestHandle is the slice of an in-flight request that Refresh
// needs. It is satisfied structurally by the request pipeline's
// Request type (package rpcpipeline), kept as an interface here so
// this package has no dependency on the pipeline (spec section 4.C
// "refresh" operates purely in terms of import, flavor, and context).
type RequestHandle interface {
	// Import is the bound import the request is going out on.
	Import() *Import

	// Flavor is the flavor the request was built with; compared
	// against the import's live Sec to detect an in-flight adapt.
	Flavor() flavor.Flavor

	// Ctx returns the CliCtx currently attached to the request, or
	// nil if none has been picked yet.
	Ctx() *CliCtx

	// SetCtx attaches a (possibly replaced) CliCtx to the request.
	SetCtx(*CliCtx)

	// Cred is the caller credential the request needs a context for.
	Cred() secpolicy.Cred

	// Resent reports whether this is a retransmission of a request
	// the caller already believes was accepted once.
	Resent() bool

	// Interrupted is closed if the caller's wait should be abandoned
	// (e.g. a signal, or the calling context being canceled).
	Interrupted() <-chan struct{}
}

// Refresh drives req's CliCtx through the bounded retry loop of spec
// section 4.C: it revalidates the bound Sec, replaces a stale or dead
// context, runs a NEW context's single refresh upcall, and blocks
// (bounded by timeout) on any context another goroutine is already
// refreshing. A negative timeout requests non-blocking behavior:
// Refresh returns ErrWouldBlock instead of waiting.
func Refresh(req RequestHandle, timeout time.Duration) error {
	for {
		imp := req.Import()

		curSec, err := ImportSecValidateGet(imp)
		if err != nil {
			return err
		}

		ctx := req.Ctx()
		if ctx == nil || !curSec.flavor.Equal(req.Flavor()) {
			newCtx, err := curSec.GetMyCtx(req.Cred())
			if err != nil {
				curSec.Put()
				return err
			}
			if ctx != nil {
				ctx.Put()
			}
			req.SetCtx(newCtx)
			ctx = newCtx
		}

		if ctx.IsEternal() {
			curSec.Put()
			return nil
		}

		if ctx.IsNew() {
			ctx.runRefresh()
		}

		if curSec.policy.Client().Validate(ctx.private) {
			curSec.Put()
			return nil
		}

		flags := ctx.flagsSnapshot()

		if flags&CtxError != 0 {
			curSec.Put()
			return ErrPermission
		}

		if flags&CtxUptodate != 0 && req.Resent() {
			curSec.Put()
			return nil
		}

		if flags&CtxDead != 0 {
			if imp.Deactivated() {
				curSec.Put()
				return ErrDeactivatedImport
			}
			newCtx, err := curSec.replaceCtx(req.Cred())
			if err != nil {
				curSec.Put()
				return err
			}
			ctx.Put()
			req.SetCtx(newCtx)
			curSec.Put()
			continue
		}

		// Neither ready nor resolved: another goroutine is mid-upcall
		// on this same context. Block until it finishes, is timed out,
		// or the caller is interrupted (spec section 4.C step 9).
		if timeout < 0 {
			curSec.Put()
			return ErrWouldBlock
		}

		waitCh := ctx.addWaiter()
		timer := time.NewTimer(timeout)

		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
			ctx.markDead()
			curSec.Put()
			return ErrTimedOut
		case <-req.Interrupted():
			timer.Stop()
			curSec.Put()
			return ErrInterrupted
		}

		curSec.Put()
	}
}
