package testsec

import (
	"fmt"
	"time"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/sec"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// Harness bundles a registered Policy, an Import already bound to a
// Sec under that policy, and the registry backing it, for tests that
// need a working Sec/CliCtx chain without standing up a real
// mechanism.
type Harness struct {
	Registry *secpolicy.Registry
	Policy   *Policy
	Import   *sec.Import
	Sec      *sec.Sec
	Flavor   flavor.Flavor
}

// NewHarness registers a null test policy under num, creates imp named
// importName, and binds a Sec to it under f (which must resolve to
// num via f.Policy). gcInterval of 0 means "never scheduled" and is
// fine for tests that don't exercise GC.
func NewHarness(importName string, num flavor.PolicyNumber, f flavor.Flavor) (*Harness, error) {
	registry := secpolicy.NewRegistry()
	p := New(fmt.Sprintf("test-policy-%d", num), num)
	if err := registry.Register(p); err != nil {
		return nil, err
	}

	imp := sec.NewImport(importName)
	s, err := sec.CreateSec(imp, registry, nil, f, secpolicy.PartClient, 0, 0)
	if err != nil {
		return nil, err
	}

	return &Harness{Registry: registry, Policy: p, Import: imp, Sec: s, Flavor: f}, nil
}

// GetCtx fetches (creating if needed) the CliCtx for cred, releasing
// it automatically when the returned func is called.
func (h *Harness) GetCtx(cred secpolicy.Cred) (*sec.CliCtx, func(), error) {
	c, err := h.Sec.GetMyCtx(cred)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Put, nil
}

// DefaultGCInterval is a reasonable GC interval for harnesses that do
// want to exercise the scheduling field without it firing mid-test.
const DefaultGCInterval = time.Hour
