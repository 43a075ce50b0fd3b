package ldapx

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// Connection pool limits.
const (
	// MaxPoolSize caps NumConnections. Directory servers commonly limit
	// concurrent connections per client well below this.
	MaxPoolSize = 100
)

// Options configures Connect.
type Options struct {
	// Host accepts nil (localhost, standard port), a "host" or
	// "host:port" string, an ldap:// or ldaps:// URL, a Host struct, or
	// a slice of any of these. More than one endpoint selects the
	// multi-host round-robin strategy.
	Host any

	// BindDN and Password form the bind identity shared by every pooled
	// connection. Leaving both empty selects an anonymous bind.
	BindDN   string
	Password string

	// NumConnections sizes the pool. It is the only concurrency knob:
	// callers needing more parallel throughput size the pool up.
	NumConnections int `default:"1"`

	// SSL dials ldaps; StartTLS upgrades a plain connection instead.
	// The two are mutually exclusive.
	SSL      bool
	StartTLS bool

	// TrustStore is a path to a PEM CA bundle. When empty, any server
	// certificate is accepted. This permissive default is deliberate
	// and documented; it is not hardened silently.
	TrustStore string

	ConnectTimeout time.Duration `default:"10s"`
	Timeout        time.Duration `default:"30s"`

	// Kerberos settings select a GSSAPI bind instead of a simple bind.
	// BindDN is used as the principal name.
	KerberosRealm  string
	KerberosKeytab string
	KerberosCCache string
	KerberosConfig string

	// Logger receives structured operational logs. Defaults to a no-op.
	Logger *zap.Logger
}

// withDefaults copies the options and fills unset fields.
func (o *Options) withDefaults() (*Options, error) {
	opts := &Options{}
	if o != nil {
		*opts = *o
	}
	if err := defaults.Set(opts); err != nil {
		return nil, newConfigError("applying defaults: %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts, nil
}

// validate rejects option combinations the pool cannot honor.
func (o *Options) validate() error {
	if o.NumConnections <= 0 {
		return newConfigError("NumConnections must be positive")
	}
	if o.NumConnections > MaxPoolSize {
		return newConfigError("NumConnections too high (max %d)", MaxPoolSize)
	}
	if o.ConnectTimeout <= 0 {
		return newConfigError("ConnectTimeout must be positive")
	}
	if o.Timeout <= 0 {
		return newConfigError("Timeout must be positive")
	}
	if o.SSL && o.StartTLS {
		return newConfigError("SSL and StartTLS are mutually exclusive")
	}
	if o.Password != "" && o.BindDN == "" && o.KerberosRealm == "" {
		return newConfigError("Password requires a BindDN")
	}
	return nil
}

// kerberos reports whether the GSSAPI bind path is selected.
func (o *Options) kerberos() bool {
	return o.KerberosRealm != ""
}

// tlsConfig builds the transport security policy. Without a TrustStore
// the connection trusts any certificate.
func (o *Options) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if o.TrustStore == "" {
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}

	pem, err := os.ReadFile(o.TrustStore)
	if err != nil {
		return nil, newConfigError("reading trust store %q: %v", o.TrustStore, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, newConfigError("trust store %q contains no usable certificates", o.TrustStore)
	}
	cfg.RootCAs = pool
	return cfg, nil
}
