package types

// Identity is an opaque caller identity token supplied by the host
// environment. Passage never interprets it: it only compares tokens for
// equality (owner checks) and uses them as map keys. The zero value means
// "no identity" and is never a valid caller.
type Identity string

// IsZero reports whether the identity is the zero value.
func (i Identity) IsZero() bool { return i == "" }

// String returns the raw token.
func (i Identity) String() string { return string(i) }
