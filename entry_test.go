package ldapx

import (
	"strings"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAttribute(t *testing.T) {
	tests := []struct {
		name string
		attr *ldap.EntryAttribute
		want Value
	}{
		{
			name: "single value becomes scalar",
			attr: &ldap.EntryAttribute{Name: "cn", Values: []string{"jdoe"}},
			want: Scalar("jdoe"),
		},
		{
			name: "multiple values become ordered sequence",
			attr: &ldap.EntryAttribute{Name: "telephoneNumber", Values: []string{"111", "222"}},
			want: Multi{"111", "222"},
		},
		{
			name: "objectClass always becomes a set",
			attr: &ldap.EntryAttribute{Name: "objectClass", Values: []string{"top", "person"}},
			want: NewSet("top", "person"),
		},
		{
			name: "single-valued objectClass still becomes a set",
			attr: &ldap.EntryAttribute{Name: "objectClass", Values: []string{"person"}},
			want: NewSet("person"),
		},
		{
			name: "no values decode to nil",
			attr: &ldap.EntryAttribute{Name: "description"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, got := decodeAttribute(tt.attr)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.attr.Name), name)
		})
	}
}

func TestDecodeAttributeLowercasesName(t *testing.T) {
	name, _ := decodeAttribute(&ldap.EntryAttribute{Name: "TelephoneNumber", Values: []string{"1"}})
	assert.Equal(t, "telephonenumber", name)
}

func TestDecodeEntry(t *testing.T) {
	le := &ldap.Entry{
		DN: "cn=jdoe,dc=example,dc=com",
		Attributes: []*ldap.EntryAttribute{
			{Name: "cn", Values: []string{"jdoe"}},
			{Name: "objectClass", Values: []string{"person"}},
			{Name: "telephoneNumber", Values: []string{"111", "222"}},
		},
	}

	e := decodeEntry(le, true)
	require.NotNil(t, e)
	assert.Equal(t, "cn=jdoe,dc=example,dc=com", e.DN)
	assert.Equal(t, Scalar("jdoe"), e.Attr("cn"))
	assert.Equal(t, NewSet("person"), e.Attr("objectClass"))
	assert.Equal(t, Multi{"111", "222"}, e.Attr("telephoneNumber"))
}

func TestDecodeEntryWithoutDN(t *testing.T) {
	le := &ldap.Entry{
		DN:         "cn=jdoe,dc=example,dc=com",
		Attributes: []*ldap.EntryAttribute{{Name: "cn", Values: []string{"jdoe"}}},
	}

	e := decodeEntry(le, false)
	require.NotNil(t, e)
	assert.Empty(t, e.DN)
}

func TestDecodeEntryDegenerate(t *testing.T) {
	assert.Nil(t, decodeEntry(nil, true), "nil entry")
	assert.Nil(t, decodeEntry(&ldap.Entry{DN: "cn=x"}, true), "entry without attributes")

	valueless := &ldap.Entry{
		DN:         "cn=x",
		Attributes: []*ldap.EntryAttribute{{Name: "cn"}},
	}
	assert.Nil(t, decodeEntry(valueless, true), "entry whose attributes have no values")
}

func TestEntryAccessors(t *testing.T) {
	e := &Entry{Attrs: map[string]Value{
		"cn":              Scalar("jdoe"),
		"telephonenumber": Multi{"111", "222"},
	}}

	assert.Equal(t, "jdoe", e.String("CN"), "lookup is case-insensitive")
	assert.Equal(t, []string{"111", "222"}, e.Strings("telephoneNumber"))
	assert.Empty(t, e.String("missing"))
	assert.Nil(t, e.Strings("missing"))

	var absent *Entry
	assert.Nil(t, absent.Attr("cn"), "nil entry is safe to query")
}

func TestSet(t *testing.T) {
	s := NewSet("top", "person")
	assert.True(t, s.Contains("top"))
	assert.False(t, s.Contains("group"))
	assert.ElementsMatch(t, []string{"top", "person"}, s.Strings())
}

func TestValueStrings(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"string", "x", []string{"x"}},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"scalar", Scalar("x"), []string{"x"}},
		{"multi", Multi{"a", "b"}, []string{"a", "b"}},
		{"set expands in sorted order", NewSet("b", "a"), []string{"a", "b"}},
		{"bytes", []byte("raw"), []string{"raw"}},
		{"int is stringified", 42, []string{"42"}},
		{"mixed slice", []any{"a", 1}, []string{"a", "1"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valueStrings(tt.in))
		})
	}
}
