package sec

import (
	"sync"
	"time"
)

// Import is the client-side binding to a single server export: the
// thing a Sec is created for and installed onto (spec.md section 3
// "bound import"). The RPC transport's own connection/reconnect state
// is out of scope here; Import exposes only what the security layer
// needs from it.
type Import struct {
	// Name identifies the target export, e.g. "mds-0001" or
	// "oss-0004", and is passed through to Policy.Client().CreateSecContext.
	Name string

	mu  sync.Mutex
	sec *Sec

	secMu sync.Mutex // serializes concurrent Adapt calls, mirrors imp_sec_mutex

	deactivated bool

	// secExpireAt is imp_sec_expire: the deadline after which the bound
	// Sec is considered stale and must be offered a chance to re-adapt
	// before the next RPC goes out (spec.md section 3 "bound import").
	// Zero means no deadline is armed.
	secExpireAt time.Time
	adaptFn     func() error
}

// NewImport creates an Import with no Sec bound yet.
func NewImport(name string) *Import {
	return &Import{Name: name}
}

// CurrentSec returns the currently bound Sec without taking a
// reference on it. Callers that intend to use the Sec across a
// blocking operation must go through ImportSecValidateGet instead.
func (imp *Import) CurrentSec() *Sec {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.sec
}

func (imp *Import) setSec(s *Sec) {
	imp.mu.Lock()
	imp.sec = s
	imp.mu.Unlock()
}

// Deactivate marks the import as torn down: Refresh will no longer
// retry a dead context against it, failing fast with
// ErrDeactivatedImport instead (spec section 4.C step 8).
func (imp *Import) Deactivate() {
	imp.mu.Lock()
	imp.deactivated = true
	imp.mu.Unlock()
}

// Deactivated reports whether Deactivate has been called.
func (imp *Import) Deactivated() bool {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.deactivated
}

// ArmExpire records the deadline after which the next
// ImportSecValidateGet call must attempt adaptFn before handing back
// the bound Sec (spec.md section 3 "bound import": "An Import also
// owns an imp_sec_expire deadline that triggers lazy adaptation before
// the next RPC"). adaptFn typically closes over the registry, SvcCtx,
// desired flavor, part and gcInterval the bound Sec was created with
// and calls Adapt; Adapt itself still no-ops if the desired flavor
// hasn't actually changed (spec section 4.B "adapt"). A zero deadline
// or a nil adaptFn disarms the check.
func (imp *Import) ArmExpire(deadline time.Time, adaptFn func() error) {
	imp.mu.Lock()
	imp.secExpireAt = deadline
	imp.adaptFn = adaptFn
	imp.mu.Unlock()
}

// ImportSecValidateGet re-validates imp's bound Sec and returns it with
// an extra reference held on behalf of the caller (spec section 4.C
// step 1 "Re-validate the import's Sec (expire check + dying check)").
// If imp_sec_expire has elapsed, it first invokes the armed adaptFn so
// a changed desired flavor has a chance to take effect before the Sec
// is handed back; an error from adaptFn is returned as-is. It then
// errors if no Sec is bound yet or the bound Sec is dying (spec
// section 4.B: "a dying sec refuses to mint new client contexts").
func ImportSecValidateGet(imp *Import) (*Sec, error) {
	imp.mu.Lock()
	expired := !imp.secExpireAt.IsZero() && !time.Now().Before(imp.secExpireAt)
	adaptFn := imp.adaptFn
	imp.mu.Unlock()

	if expired && adaptFn != nil {
		if err := adaptFn(); err != nil {
			return nil, &SecError{Op: "validate", Message: "lazy adaptation failed", Cause: err}
		}
	}

	imp.mu.Lock()
	s := imp.sec
	imp.mu.Unlock()

	if s == nil {
		return nil, &SecError{Op: "validate", Message: "import has no bound security context"}
	}
	if s.Dying() {
		return nil, ErrDying
	}
	s.Get()
	return s, nil
}
