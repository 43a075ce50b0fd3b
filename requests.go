package ldapx

import (
	"maps"
	"slices"

	"github.com/go-ldap/ldap/v3"
)

// DeleteAll is the sentinel value for a Mods.Delete section entry that
// removes every value of the attribute rather than a specific one.
var DeleteAll deleteAll

type deleteAll struct{}

// Mods describes one atomic modify request. Each section maps attribute
// names to values using the same scalar/sequence conventions as Add.
// PreRead and PostRead name attributes to be fetched atomically before
// and after the modification via RFC 4527 controls.
type Mods struct {
	Add     map[string]any
	Delete  map[string]any
	Replace map[string]any

	// Increment values are scalar by protocol (RFC 4525 increments an
	// attribute by one delta); a sequence contributes only its first
	// value.
	Increment map[string]any

	PreRead  []string
	PostRead []string
}

func (m Mods) empty() bool {
	return len(m.Add) == 0 && len(m.Delete) == 0 && len(m.Replace) == 0 && len(m.Increment) == 0
}

// newAddRequest encodes a generic attribute map as a protocol add
// request. Insertion order across attributes is not significant, but
// the keys are sorted to keep the request deterministic.
func newAddRequest(dn string, attrs map[string]any) *ldap.AddRequest {
	req := ldap.NewAddRequest(dn, nil)
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		req.Attribute(name, valueStrings(attrs[name]))
	}
	return req
}

// newModifyRequest composes the Mods sections into one protocol modify
// request. Servers execute modifications in request order, so the
// section order is fixed at add, delete, replace, increment to keep
// behavior deterministic.
func newModifyRequest(dn string, mods Mods) *ldap.ModifyRequest {
	req := ldap.NewModifyRequest(dn, readControls(mods.PreRead, mods.PostRead))

	for _, name := range slices.Sorted(maps.Keys(mods.Add)) {
		req.Add(name, valueStrings(mods.Add[name]))
	}
	for _, name := range slices.Sorted(maps.Keys(mods.Delete)) {
		v := mods.Delete[name]
		if _, all := v.(deleteAll); all {
			// Attribute-only change: remove every value.
			req.Delete(name, []string{})
		} else {
			req.Delete(name, valueStrings(v))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(mods.Replace)) {
		req.Replace(name, valueStrings(mods.Replace[name]))
	}
	for _, name := range slices.Sorted(maps.Keys(mods.Increment)) {
		values := valueStrings(mods.Increment[name])
		if len(values) > 0 {
			req.Increment(name, values[0])
		}
	}
	return req
}

// newDeleteRequest builds a protocol delete request. The pre-read
// directive is handled by the caller; see Conn.Delete.
func newDeleteRequest(dn string) *ldap.DelRequest {
	return ldap.NewDelRequest(dn, nil)
}
