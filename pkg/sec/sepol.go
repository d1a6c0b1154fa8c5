package sec

import (
	"sync"
	"time"
)

// sepolCache coalesces repeated SELinux enforcement-status checks
// behind a caller-chosen recheck interval (spec.md section 6
// "Tunables": "send_sepol"). StatusFunc is injected so this package
// carries no SELinux dependency itself; a nil StatusFunc behaves as
// "never enforcing", matching a build with no LSM present.
type sepolCache struct {
	mu         sync.Mutex
	statusFunc func() (bool, error)
	lastCheck  time.Time
	lastValue  bool
}

// SetSepolProbe installs the probe SendSepol calls to refresh the
// cached enforcement status.
func (s *Sec) SetSepolProbe(statusFunc func() (bool, error)) {
	s.sepol.mu.Lock()
	s.sepol.statusFunc = statusFunc
	s.sepol.mu.Unlock()
}

// SendSepol reports whether this Sec's requests should carry SELinux
// context information, per config.SecurityConfig.SendSepol's three
// modes (spec.md section 6 "send_sepol", matching
// ptlrpc/sec.c:1832-1878's sptlrpc_import_check_peer_secpolicy):
//
//   - forced == 0 disables sepol outright: always false, statusFunc is
//     never consulted.
//   - forced < 0 (the wire value -1) forces a fresh probe on every
//     call: statusFunc is always invoked, with no coalescing.
//   - forced > 0 is the minimum number of seconds between probes: a
//     call within that window since the last probe reuses the cached
//     result instead of calling statusFunc again.
func (s *Sec) SendSepol(forced int) bool {
	if forced == 0 {
		return false
	}

	s.sepol.mu.Lock()
	defer s.sepol.mu.Unlock()

	if s.sepol.statusFunc == nil {
		return false
	}

	now := time.Now()
	if forced > 0 && !s.sepol.lastCheck.IsZero() {
		recheckEvery := time.Duration(forced) * time.Second
		if now.Sub(s.sepol.lastCheck) < recheckEvery {
			return s.sepol.lastValue
		}
	}

	enforcing, err := s.sepol.statusFunc()
	if err != nil {
		return s.sepol.lastValue
	}
	s.sepol.lastValue = enforcing
	s.sepol.lastCheck = now
	return enforcing
}
