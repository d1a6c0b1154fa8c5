package secpolicy

import (
	"sync"

	"github.com/clusterfs/rpcsec/pkg/flavor"
)

// maxPolicySlots bounds the fixed-size policy table (spec section 4.A:
// "A fixed-size table indexed by wire-policy number").
const maxPolicySlots = 64

// Loader brings in the backing module for a policy that is not yet
// registered, e.g. a GSS mechanism implemented as a pluggable module.
// It is invoked at most once per process per policy number, serialized
// under Registry's loader mutex; after it runs the slot lookup is
// retried once (spec section 4.A). A failed load is not attempted again.
type Loader func() (Policy, error)

// Registry is the process-wide, reader/writer-lock-guarded table of
// registered security policies (component A).
type Registry struct {
	mu    sync.RWMutex
	slots [maxPolicySlots]Policy

	loaderMu   sync.Mutex
	loaders    map[flavor.PolicyNumber]Loader
	attempted  map[flavor.PolicyNumber]bool
	moduleRefs map[string]int
}

// NewRegistry creates an empty policy registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders:    make(map[flavor.PolicyNumber]Loader),
		attempted:  make(map[flavor.PolicyNumber]bool),
		moduleRefs: make(map[string]int),
	}
}

// RegisterLoader installs a one-shot loader for num, used for policies
// (such as GSS mechanisms) that are brought in on demand rather than
// registered eagerly at startup.
func (r *Registry) RegisterLoader(num flavor.PolicyNumber, loader Loader) {
	r.loaderMu.Lock()
	defer r.loaderMu.Unlock()
	r.loaders[num] = loader
}

// Register adds policy to the table. It fails if the slot is already
// occupied (spec section 4.A: "fails if the slot is occupied").
func (r *Registry) Register(p Policy) error {
	num := p.Number()
	if int(num) >= maxPolicySlots {
		return &RegistryError{Operation: "register", Number: int(num), Message: "policy number out of range"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slots[num] != nil {
		return &RegistryError{Operation: "register", Number: int(num), Message: "duplicate policy"}
	}

	r.slots[num] = p
	r.moduleRefs[p.Module()]++
	return nil
}

// Unregister removes policy from the table. It asserts the slot
// matches the given policy (spec section 4.A), and refuses while a
// module-loader reference on the same module token is still live.
func (r *Registry) Unregister(p Policy) error {
	num := p.Number()
	if int(num) >= maxPolicySlots {
		return &RegistryError{Operation: "unregister", Number: int(num), Message: "policy number out of range"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slots[num] != p {
		return &RegistryError{Operation: "unregister", Number: int(num), Message: "slot does not hold the given policy"}
	}

	if r.moduleRefs[p.Module()] > 1 {
		return &RegistryError{Operation: "unregister", Number: int(num), Message: "module has a live loader reference"}
	}

	r.slots[num] = nil
	delete(r.moduleRefs, p.Module())
	return nil
}

// Lookup returns the registered policy for flavor f's policy number,
// driving the on-demand loader when applicable (spec section 4.A
// "wireflavor_to_policy").
func (r *Registry) Lookup(f flavor.Flavor) (Policy, error) {
	return r.LookupNumber(f.Policy)
}

// LookupNumber is the same as Lookup but takes a bare policy number.
func (r *Registry) LookupNumber(num flavor.PolicyNumber) (Policy, error) {
	if int(num) >= maxPolicySlots {
		return nil, ErrInvalidFlavor
	}

	if p := r.get(num); p != nil {
		return p, nil
	}

	r.loaderMu.Lock()
	loader, hasLoader := r.loaders[num]
	if hasLoader && !r.attempted[num] {
		r.attempted[num] = true
		if p, err := loader(); err == nil {
			// Module-token acquisition piggybacks on the loader: a
			// successful load holds an extra module reference so the
			// policy cannot be unregistered out from under the lookup
			// that triggered the load.
			r.mu.Lock()
			if r.slots[num] == nil {
				r.slots[num] = p
				r.moduleRefs[p.Module()] += 2
			}
			r.mu.Unlock()
		}
	}
	r.loaderMu.Unlock()

	if p := r.get(num); p != nil {
		return p, nil
	}

	return nil, ErrNotLoaded
}

func (r *Registry) get(num flavor.PolicyNumber) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[num]
}
