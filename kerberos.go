package ldapx

import (
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// gssapiBind authenticates a connection via Kerberos. The service
// principal is derived from the endpoint host unless the credential
// source dictates otherwise.
func gssapiBind(conn *ldap.Conn, opts *Options, host string) error {
	client, err := newGSSAPIClient(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.DeleteSecContext()
	}()

	return conn.GSSAPIBind(client, servicePrincipal(host), "")
}

// newGSSAPIClient builds the Kerberos client from the configured
// credential source, preferring a credential cache over a keytab over a
// password. BindDN is used as the principal name.
func newGSSAPIClient(opts *Options) (ldap.GSSAPIClient, error) {
	conf := opts.KerberosConfig
	if conf == "" {
		conf = defaultKrb5Conf
	}
	if _, err := os.Stat(conf); err != nil {
		return nil, newConfigError("kerberos configuration %q not found", conf)
	}

	switch {
	case opts.KerberosCCache != "":
		return gssapi.NewClientFromCCache(opts.KerberosCCache, conf, krb5client.DisablePAFXFAST(true))
	case opts.KerberosKeytab != "":
		return gssapi.NewClientWithKeytab(opts.BindDN, opts.KerberosRealm, opts.KerberosKeytab, conf, krb5client.DisablePAFXFAST(true))
	case opts.BindDN != "" && opts.Password != "":
		return gssapi.NewClientWithPassword(opts.BindDN, opts.KerberosRealm, opts.Password, conf, krb5client.DisablePAFXFAST(true))
	default:
		return nil, newConfigError("no usable kerberos credentials: need a ccache, keytab, or BindDN and Password")
	}
}

// servicePrincipal builds the ldap/<host> SPN, stripping any port.
func servicePrincipal(host string) string {
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return "ldap/" + host
}
