package record

import "strings"

// Name is a hierarchical record or gossip-message name, represented as a
// sequence of components rather than a flat string. String() renders it
// for logging, wire transport and as the key of string-keyed sets and
// maps; ParseName turns such a string back into a Name by splitting on
// "/", so a component that itself contains "/" does not survive that
// round trip.
type Name struct {
	components []string
}

// NewName builds a Name from its components.
func NewName(components ...string) Name {
	cp := make([]string, len(components))
	copy(cp, components)
	return Name{components: cp}
}

// ParseName reconstructs a Name from its wire string form, splitting on
// "/". It is used at the transport boundary (decoding a FETCH interest
// name, for example) and wherever a name was kept by its String() key:
// store.Store.Tips, gossip.SyncName, gossip.Handler.RetryStale and
// identity.List.LastCertRecords.
func ParseName(s string) Name {
	s = strings.Trim(s, "/")
	if s == "" {
		return Name{}
	}
	return NewName(strings.Split(s, "/")...)
}

// String renders the name in its wire/log form.
func (n Name) String() string {
	return "/" + strings.Join(n.components, "/")
}

// Len returns the number of components.
func (n Name) Len() int {
	return len(n.components)
}

// Component returns the i-th component.
func (n Name) Component(i int) string {
	if i < 0 || i >= len(n.components) {
		return ""
	}
	return n.components[i]
}

// Components returns a copy of the underlying components.
func (n Name) Components() []string {
	cp := make([]string, len(n.components))
	copy(cp, n.components)
	return cp
}

// Append returns a new Name with additional trailing components.
func (n Name) Append(components ...string) Name {
	return NewName(append(n.Components(), components...)...)
}

// Prefix returns the leading k components as a new Name.
func (n Name) Prefix(k int) Name {
	if k > len(n.components) {
		k = len(n.components)
	}
	return NewName(n.components[:k]...)
}

// Equal reports whether two names have identical components.
func (n Name) Equal(other Name) bool {
	if len(n.components) != len(other.components) {
		return false
	}
	for i, c := range n.components {
		if other.components[i] != c {
			return false
		}
	}
	return true
}

// IsZero reports whether the name has no components.
func (n Name) IsZero() bool {
	return len(n.components) == 0
}

// Record names are exactly <mcPrefix>/<producerIdentity>/<digest>: three
// components. ProducerIdentity and Digest only make sense on a Name
// constructed with that shape; callers that built a name via ParseName
// from an interest string (which may be a NOTIF or SYNC name) must not
// call them without first confirming the name shape.

// ProducerIdentity returns the producer-identity component of a record
// name (component index 1).
func (n Name) ProducerIdentity() string {
	return n.Component(1)
}

// Digest returns the digest component of a record name (the last
// component).
func (n Name) Digest() string {
	if n.Len() == 0 {
		return ""
	}
	return n.Component(n.Len() - 1)
}

// MulticastPrefix returns the leading component shared by all names in a
// federation.
func (n Name) MulticastPrefix() string {
	return n.Component(0)
}
