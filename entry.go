package ldapx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// AttrObjectClass is the lower-cased key under which object classes
// appear in a decoded Entry. The attribute always decodes to a Set,
// even when the server returns a single value.
const AttrObjectClass = "objectclass"

// Value is the decoded form of an attribute: Scalar, Multi or Set.
type Value interface {
	// Strings returns the underlying values. For a Set the order is
	// unspecified and must not be relied upon.
	Strings() []string

	isValue()
}

// Scalar is a single-valued attribute.
type Scalar string

func (s Scalar) Strings() []string { return []string{string(s)} }
func (s Scalar) String() string    { return string(s) }
func (Scalar) isValue()            {}

// Multi is a multi-valued attribute in server-returned order.
type Multi []string

func (m Multi) Strings() []string { return []string(m) }
func (Multi) isValue()            {}

// Set is an unordered collection of values, used for objectClass.
type Set map[string]struct{}

// NewSet builds a Set from the given values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether v is a member of the set.
func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

func (Set) isValue() {}

// Entry is a decoded directory entry: a map from lower-cased attribute
// name to Value, plus the distinguished name when produced by a read.
type Entry struct {
	DN    string
	Attrs map[string]Value
}

// Attr returns the value of the named attribute, or nil if absent.
// Lookup is case-insensitive.
func (e *Entry) Attr(name string) Value {
	if e == nil {
		return nil
	}
	return e.Attrs[strings.ToLower(name)]
}

// String returns the first value of the named attribute, or "".
func (e *Entry) String(name string) string {
	v := e.Attr(name)
	if v == nil {
		return ""
	}
	if vs := v.Strings(); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Strings returns all values of the named attribute.
func (e *Entry) Strings(name string) []string {
	v := e.Attr(name)
	if v == nil {
		return nil
	}
	return v.Strings()
}

// decodeAttribute maps a protocol attribute to its (name, Value) form.
// One value becomes a Scalar, several become a Multi, and objectClass
// always becomes a Set so callers see a stable type regardless of how
// many classes the server returned.
func decodeAttribute(attr *ldap.EntryAttribute) (string, Value) {
	name := strings.ToLower(attr.Name)
	switch {
	case len(attr.Values) == 0:
		return name, nil
	case name == AttrObjectClass:
		return name, NewSet(attr.Values...)
	case len(attr.Values) == 1:
		return name, Scalar(attr.Values[0])
	default:
		return name, Multi(append([]string(nil), attr.Values...))
	}
}

// decodeEntry converts a protocol entry into an Entry. A nil or
// attribute-less entry decodes to nil: "not found" and "found but
// empty" are indistinguishable at this layer.
func decodeEntry(le *ldap.Entry, includeDN bool) *Entry {
	if le == nil || len(le.Attributes) == 0 {
		return nil
	}

	attrs := make(map[string]Value, len(le.Attributes))
	for _, a := range le.Attributes {
		name, v := decodeAttribute(a)
		if v == nil {
			continue
		}
		attrs[name] = v
	}
	if len(attrs) == 0 {
		return nil
	}

	e := &Entry{Attrs: attrs}
	if includeDN {
		e.DN = le.DN
	}
	return e
}

// valueStrings expands a generic attribute value to its protocol form.
// Sequences and sets expand to multiple values in iteration order;
// anything else is stringified.
func valueStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case Value:
		return t.Strings()
	case string:
		return []string{t}
	case []string:
		return t
	case []byte:
		return []string{string(t)}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, valueStrings(e)...)
		}
		return out
	case fmt.Stringer:
		return []string{t.String()}
	default:
		return []string{fmt.Sprint(t)}
	}
}
