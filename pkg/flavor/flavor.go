// Package flavor defines the wire flavor type shared by every component
// of the security layer: a struct of policy number, service class, bulk
// sub-code and flag bits, plus the named base
// flavors and their string forms (spec section 3 "Flavor", section 6
// "Wire flavor codes").
package flavor

import (
	"fmt"
	"strings"
)

// Policy numbers, matching the wire-policy numbers a Policy registers
// under (component A).
type PolicyNumber uint8

const (
	PolicyNull  PolicyNumber = 0
	PolicyPlain PolicyNumber = 1
	PolicyGSS   PolicyNumber = 6
	PolicySK    PolicyNumber = 8
)

// Service is the service class sub-code: null, auth-only, integrity, privacy.
type Service uint8

const (
	ServiceNull Service = iota
	ServiceAuth
	ServiceIntegrity
	ServicePrivacy
)

func (s Service) String() string {
	switch s {
	case ServiceNull:
		return "null"
	case ServiceAuth:
		return "auth"
	case ServiceIntegrity:
		return "integrity"
	case ServicePrivacy:
		return "privacy"
	default:
		return "unknown"
	}
}

// BulkService is the bulk-protection sub-code (spec section 6 "Bulk services").
// Only Intg and Priv count as bulk-protected for flavor policy purposes.
type BulkService uint8

const (
	BulkNull BulkService = iota
	BulkIntg
	BulkPriv
)

func (b BulkService) String() string {
	switch b {
	case BulkNull:
		return "null"
	case BulkIntg:
		return "intg"
	case BulkPriv:
		return "priv"
	default:
		return "unknown"
	}
}

// Protected reports whether b counts as bulk-protected.
func (b BulkService) Protected() bool {
	return b == BulkIntg || b == BulkPriv
}

// Flag bits carried alongside the base flavor.
type Flag uint32

const (
	FlagReverse  Flag = 1 << iota // this Sec was built as a reverse sec
	FlagRootOnly                 // reverse sec never manufactures contexts for non-root
)

// Flavor is the negotiated tuple identifying policy, service class,
// bulk service and flag bits (spec section 3 "Flavor"). Equality is
// byte-wise over the full struct, so flavor comparison includes the
// flag bits; the struct carries no bulk hash.
type Flavor struct {
	Policy  PolicyNumber
	Service Service
	Bulk    BulkService
	Flags   Flag
}

// Equal reports whether f and other represent the identical flavor,
// byte-wise (every field, including Flags).
func (f Flavor) Equal(other Flavor) bool {
	return f == other
}

// WithFlags returns a copy of f with the given flags set, used when
// constructing a reverse sec's forced REVERSE|ROOTONLY flavor
// (spec section 4.B).
func (f Flavor) WithFlags(flags Flag) Flavor {
	f.Flags |= flags
	return f
}

// Base strips flag bits, used by the round-trip law in spec section 8:
// name_to_flavor(flavor_to_name(f)) == base(f).
func (f Flavor) Base() Flavor {
	f.Flags = 0
	return f
}

var ErrInvalidFlavor = fmt.Errorf("flavor: invalid flavor name")

// namedBase maps the exact accepted strings (spec section 6) to their
// base flavor (no flags, no hash sub-specifier).
var namedBase = map[string]Flavor{
	"null":    {Policy: PolicyNull, Service: ServiceNull, Bulk: BulkNull},
	"plain":   {Policy: PolicyPlain, Service: ServiceAuth, Bulk: BulkNull},
	"gssnull": {Policy: PolicyGSS, Service: ServiceNull, Bulk: BulkNull},
	"krb5n":   {Policy: PolicyGSS, Service: ServiceNull, Bulk: BulkNull},
	"krb5a":   {Policy: PolicyGSS, Service: ServiceAuth, Bulk: BulkNull},
	"krb5i":   {Policy: PolicyGSS, Service: ServiceIntegrity, Bulk: BulkIntg},
	"krb5p":   {Policy: PolicyGSS, Service: ServicePrivacy, Bulk: BulkPriv},
	"skn":     {Policy: PolicySK, Service: ServiceNull, Bulk: BulkNull},
	"ska":     {Policy: PolicySK, Service: ServiceAuth, Bulk: BulkNull},
	"ski":     {Policy: PolicySK, Service: ServiceIntegrity, Bulk: BulkIntg},
	"skpi":    {Policy: PolicySK, Service: ServicePrivacy, Bulk: BulkPriv},
}

var baseName = func() map[Flavor]string {
	m := make(map[Flavor]string, len(namedBase))
	for name, f := range namedBase {
		// gssnull and krb5n collide on base flavor; krb5n is the
		// canonical reverse mapping since it is the more specific name.
		if name == "gssnull" {
			continue
		}
		m[f] = name
	}
	return m
}()

// ParseName parses one of the named base flavors (spec section 6).
// "plain" may carry a trailing "-hash:<name>" sub-specifier, which is
// accepted but does not change the returned base Flavor (the hash
// algorithm selection is a policy-private concern).
func ParseName(name string) (Flavor, string, error) {
	hashAlgo := ""
	base := name
	if strings.HasPrefix(name, "plain-hash:") {
		hashAlgo = strings.TrimPrefix(name, "plain-hash:")
		base = "plain"
		if hashAlgo == "" {
			return Flavor{}, "", ErrInvalidFlavor
		}
	}

	f, ok := namedBase[base]
	if !ok {
		return Flavor{}, "", ErrInvalidFlavor
	}
	return f, hashAlgo, nil
}

// Name formats the base flavor (no flags) back to its canonical name.
func Name(f Flavor) (string, error) {
	name, ok := baseName[f.Base()]
	if !ok {
		return "", ErrInvalidFlavor
	}
	return name, nil
}
