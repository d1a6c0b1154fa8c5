package sec

import (
	"testing"
	"time"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

func newTestRegistry(t *testing.T, p secpolicy.Policy) *secpolicy.Registry {
	t.Helper()
	r := secpolicy.NewRegistry()
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func TestCreateSecBindsAndReplacesImport(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")

	f1 := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}
	s1, err := CreateSec(imp, r, nil, f1, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}
	if imp.CurrentSec() != s1 {
		t.Fatalf("import's bound sec does not match the newly created one")
	}

	f2 := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceIntegrity, Bulk: flavor.BulkIntg}
	s2, err := CreateSec(imp, r, nil, f2, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("second CreateSec: %v", err)
	}
	if imp.CurrentSec() != s2 {
		t.Fatalf("import's bound sec was not replaced")
	}
	if !s1.Dying() {
		t.Errorf("old sec should be marked dying once replaced")
	}

	p.mu.Lock()
	killed := len(p.killed)
	p.mu.Unlock()
	if killed != 1 {
		t.Errorf("expected exactly one KillSecContext call, got %d", killed)
	}
}

func TestAdaptIsNoOpForSameFlavor(t *testing.T) {
	p := &fakePolicy{name: "null", number: flavor.PolicyNull}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyNull}

	s1, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}

	if err := Adapt(imp, r, nil, f, secpolicy.PartClient, time.Minute, 0); err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if imp.CurrentSec() != s1 {
		t.Errorf("Adapt with an unchanged flavor must not replace the bound sec")
	}
}

func TestSecPutDestroysAtZeroRefs(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	s, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}

	s.Get()
	s.Put()
	p.mu.Lock()
	destroyed := len(p.destroyed)
	p.mu.Unlock()
	if destroyed != 0 {
		t.Fatalf("sec destroyed while a reference is still outstanding")
	}

	s.Put() // drops the import's own reference
	p.mu.Lock()
	destroyed = len(p.destroyed)
	p.mu.Unlock()
	if destroyed != 1 {
		t.Fatalf("expected DestroySecContext once refs reached zero, got %d calls", destroyed)
	}
}

func TestImportSecValidateGetRejectsDyingSec(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	s, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}
	s.kill()

	if _, err := ImportSecValidateGet(imp); err != ErrDying {
		t.Fatalf("expected ErrDying, got %v", err)
	}
}

func TestImportSecValidateGetRunsAdaptAfterExpire(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	if _, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, -time.Second); err != nil {
		t.Fatalf("CreateSec: %v", err)
	}

	var adapted int
	imp.ArmExpire(time.Now().Add(-time.Second), func() error {
		adapted++
		return nil
	})

	if _, err := ImportSecValidateGet(imp); err != nil {
		t.Fatalf("ImportSecValidateGet: %v", err)
	}
	if adapted != 1 {
		t.Fatalf("expected adaptFn to run exactly once past the deadline, got %d", adapted)
	}
}

func TestImportSecValidateGetSkipsAdaptBeforeExpire(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	if _, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, time.Hour); err != nil {
		t.Fatalf("CreateSec: %v", err)
	}

	var adapted int
	imp.ArmExpire(time.Now().Add(time.Hour), func() error {
		adapted++
		return nil
	})

	if _, err := ImportSecValidateGet(imp); err != nil {
		t.Fatalf("ImportSecValidateGet: %v", err)
	}
	if adapted != 0 {
		t.Fatalf("adaptFn must not run before the deadline, ran %d times", adapted)
	}
}

func TestCreateSecReverseUsesSvcCtxPolicy(t *testing.T) {
	reverseTarget := &fakePolicy{name: "reverse-target", number: flavor.PolicyPlain + 1}
	imp := NewImport("target-0001")

	sc := &SvcCtx{Policy: reverseTarget}
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	// NewReverse passes a nil registry through to CreateSec: if the
	// reverse-sec branch ever fell through to a registry lookup instead
	// of using svcCtx.Policy, this would panic or error instead of
	// succeeding.
	s, err := NewReverse(imp, sc, f, time.Minute, 0)
	if err != nil {
		t.Fatalf("NewReverse: %v", err)
	}
	if s.Policy() != reverseTarget {
		t.Fatalf("reverse sec must use svcCtx's policy, not a registry lookup")
	}
	if s.Part() != secpolicy.PartReverse {
		t.Errorf("reverse sec must carry PartReverse, got %v", s.Part())
	}
	if s.Flavor().Flags&flavor.FlagReverse == 0 || s.Flavor().Flags&flavor.FlagRootOnly == 0 {
		t.Errorf("reverse sec flavor must carry REVERSE|ROOTONLY, got flags %v", s.Flavor().Flags)
	}
}

func TestNewReverseRejectsNilSvcCtx(t *testing.T) {
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}
	if _, err := NewReverse(imp, nil, f, time.Minute, 0); err == nil {
		t.Fatalf("expected an error for a nil SvcCtx")
	}
}

func TestFlushCtxCacheForceMarksDead(t *testing.T) {
	p := &fakePolicy{name: "plain", number: flavor.PolicyPlain}
	r := newTestRegistry(t, p)
	imp := NewImport("target-0001")
	f := flavor.Flavor{Policy: flavor.PolicyPlain, Service: flavor.ServiceAuth}

	s, err := CreateSec(imp, r, nil, f, secpolicy.PartClient, time.Minute, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}

	ctx, err := s.GetMyCtx(secpolicy.Cred{UID: 1000})
	if err != nil {
		t.Fatalf("GetMyCtx: %v", err)
	}

	s.FlushCtxCache(-1, false, true)

	if !ctx.IsDead() {
		t.Errorf("context should be dead after a forced flush")
	}
}
