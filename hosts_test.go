package ldapx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHosts(t *testing.T) {
	tests := []struct {
		name    string
		spec    any
		want    []*endpoint
		wantErr bool
	}{
		{
			name: "nil defaults to localhost",
			spec: nil,
			want: []*endpoint{{host: DefaultAddress}},
		},
		{
			name: "bare host",
			spec: "ldap.example.com",
			want: []*endpoint{{host: "ldap.example.com"}},
		},
		{
			name: "host with port",
			spec: "ldap.example.com:10389",
			want: []*endpoint{{host: "ldap.example.com", port: 10389}},
		},
		{
			name: "empty address maps to localhost",
			spec: ":10389",
			want: []*endpoint{{host: DefaultAddress, port: 10389}},
		},
		{
			name: "unparsable port is left unresolved",
			spec: "ldap.example.com:zzz",
			want: []*endpoint{{host: "ldap.example.com"}},
		},
		{
			name: "out-of-range port is left unresolved",
			spec: "ldap.example.com:99999",
			want: []*endpoint{{host: "ldap.example.com"}},
		},
		{
			name: "ldap URL",
			spec: "ldap://ldap.example.com",
			want: []*endpoint{{host: "ldap.example.com", scheme: schemePlain}},
		},
		{
			name: "ldaps URL with port",
			spec: "ldaps://ldap.example.com:1636",
			want: []*endpoint{{host: "ldap.example.com", port: 1636, scheme: schemeTLS}},
		},
		{
			name: "URL trailing path is ignored",
			spec: "ldap://ldap.example.com:389/dc=example,dc=com",
			want: []*endpoint{{host: "ldap.example.com", port: 389, scheme: schemePlain}},
		},
		{
			name: "struct with defaults",
			spec: Host{},
			want: []*endpoint{{host: DefaultAddress}},
		},
		{
			name: "struct with explicit port",
			spec: Host{Address: "dc1.example.com", Port: 3268},
			want: []*endpoint{{host: "dc1.example.com", port: 3268}},
		},
		{
			name: "struct pointer",
			spec: &Host{Address: "dc1.example.com"},
			want: []*endpoint{{host: "dc1.example.com"}},
		},
		{
			name: "nil struct pointer defaults to localhost",
			spec: (*Host)(nil),
			want: []*endpoint{{host: DefaultAddress}},
		},
		{
			name: "string collection preserves order",
			spec: []string{"dc1.example.com", "dc2.example.com:10389"},
			want: []*endpoint{
				{host: "dc1.example.com"},
				{host: "dc2.example.com", port: 10389},
			},
		},
		{
			name: "struct collection",
			spec: []Host{{Address: "dc1"}, {Address: "dc2", Port: 636}},
			want: []*endpoint{{host: "dc1"}, {host: "dc2", port: 636}},
		},
		{
			name: "mixed collection",
			spec: []any{"dc1:389", Host{Address: "dc2"}},
			want: []*endpoint{{host: "dc1", port: 389}, {host: "dc2"}},
		},
		{
			name:    "unsupported shape",
			spec:    42,
			wantErr: true,
		},
		{
			name:    "nested collection",
			spec:    []any{[]string{"dc1"}},
			wantErr: true,
		},
		{
			name:    "empty collection",
			spec:    []any{},
			wantErr: true,
		},
		{
			name:    "empty string collection",
			spec:    []string{},
			wantErr: true,
		},
		{
			name:    "empty struct collection",
			spec:    []Host{},
			wantErr: true,
		},
		{
			name:    "unknown URL scheme",
			spec:    "http://ldap.example.com",
			wantErr: true,
		},
		{
			name:    "bad URL port",
			spec:    "ldap://ldap.example.com:notaport",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveHosts(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointDefaults(t *testing.T) {
	ep := &endpoint{host: "ldap.example.com"}

	assert.Equal(t, "ldap.example.com:389", ep.addr(false))
	assert.Equal(t, "ldap.example.com:636", ep.addr(true))
	assert.Equal(t, "ldap://ldap.example.com:389", ep.url(false))
	assert.Equal(t, "ldaps://ldap.example.com:636", ep.url(true))

	explicit := &endpoint{host: "ldap.example.com", port: 10389}
	assert.Equal(t, "ldap.example.com:10389", explicit.addr(true), "explicit port is kept")
}

func TestEndpointSchemeOverridesSSL(t *testing.T) {
	plain := &endpoint{host: "h", scheme: schemePlain}
	secure := &endpoint{host: "h", scheme: schemeTLS}
	unspecified := &endpoint{host: "h"}

	assert.False(t, plain.useTLS(true), "ldap:// pins the plain transport")
	assert.True(t, secure.useTLS(false), "ldaps:// pins TLS")
	assert.True(t, unspecified.useTLS(true))
	assert.False(t, unspecified.useTLS(false))
}
