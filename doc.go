// Package ldapx provides a pooled, map-oriented client layer on top of
// go-ldap/ldap for directory servers.
//
// Entries are exposed as attribute maps with a small tagged-union value
// model: an attribute with a single value decodes to a Scalar, one with
// several values decodes to an ordered Multi, and objectClass always
// decodes to a Set regardless of cardinality. The same rules apply in
// reverse when writing.
//
// # Basic Usage
//
//	conn, err := ldapx.Connect(&ldapx.Options{
//		Host:     "ldap.example.com:389",
//		BindDN:   "cn=admin,dc=example,dc=com",
//		Password: "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	_, err = conn.Add(ctx, "cn=jdoe,dc=example,dc=com", map[string]any{
//		"objectClass":     ldapx.NewSet("top", "person"),
//		"cn":              "jdoe",
//		"sn":              "Doe",
//		"telephoneNumber": []string{"111", "222"},
//	})
//
//	entry := conn.Get(ctx, "cn=jdoe,dc=example,dc=com")
//
// # Hosts and Pooling
//
// Options.Host accepts a single "host:port" string, an ldap:// or
// ldaps:// URL, a Host struct, or a slice of any of these. A single
// endpoint is dialed and bound eagerly at Connect time, so credential
// problems surface immediately as a *BindError. Multiple endpoints form
// a round-robin server set whose connections are established lazily as
// they are checked out; Connect itself performs no network I/O on that
// path.
//
// # Streaming Searches
//
// Search materializes the full result set. SearchEach streams entries
// through a bounded queue and invokes a callback per entry in server
// order; a slow callback throttles the fetch rate rather than growing
// memory.
//
// # Trust Policy
//
// When SSL or StartTLS is enabled and no TrustStore is configured, any
// server certificate is accepted. This permissive default is deliberate;
// supply a CA bundle via TrustStore to enable verification.
package ldapx
