package netlinkyaml

import "strings"

// substituteQuotes rewrites every quote character into a paired
// percent marker so the Netlink transport never has to carry a raw
// quote byte: the opening quote of a pair becomes "% " and the
// matching close becomes " %", tracked independently for ' and "
// (spec section 4.F encoder step 1: "quote substitution '/" <-> %").
func substituteQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var dq, sq int
	for _, r := range s {
		switch r {
		case '"':
			if dq%2 == 0 {
				b.WriteString("% ")
			} else {
				b.WriteString(" %")
			}
			dq++
		case '\'':
			if sq%2 == 0 {
				b.WriteString("% ")
			} else {
				b.WriteString(" %")
			}
			sq++
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
