// Package entitlement is the access-control decision point consulted on
// every content read.
package entitlement

type Decision int

const (
	Allow Decision = iota
	Deny
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// Check decides whether a caller may read a content item in full. Premium
// content requires the caller's premium flag to be affirmatively true at the
// moment of the read; free content is always allowed.
func Check(contentPremium, callerPremium bool) Decision {
	if !contentPremium || callerPremium {
		return Allow
	}
	return Deny
}
