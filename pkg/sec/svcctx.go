package sec

import "github.com/clusterfs/rpcsec/pkg/secpolicy"

// SvcCtx is the server-side security context an incoming request was
// accepted under. Passing a non-nil SvcCtx to CreateSec (or, more
// directly, calling NewReverse) builds a reverse Sec: a Sec used to
// call back the request's originator with credentials taken from the
// request itself, bound to SvcCtx's own policy rather than one
// resolved via a registry lookup (spec.md section 3 "Reverse Sec",
// section 4.B "create": "the policy is taken from SvcCtx.sc_policy").
type SvcCtx struct {
	// Policy is the policy the incoming request's server-side context
	// was established under (sc_policy).
	Policy secpolicy.Policy
}
