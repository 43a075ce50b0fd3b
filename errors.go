package ldapx

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// ErrPoolClosed reports an operation attempted after Close released the
// connection pool.
var ErrPoolClosed = errors.New("ldapx: connection pool is closed")

// ConfigError reports a malformed host specification or option set. It
// is raised synchronously at Connect time and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "ldapx: invalid configuration: " + e.Reason
}

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// BindError reports a rejected credential or a failed connection on the
// eager single-endpoint connect path. Code and Name carry the protocol
// result when the server produced one.
type BindError struct {
	Server string
	Code   uint16
	Name   string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("ldapx: bind to %s failed: %s (code %d): %v", e.Server, e.Name, e.Code, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

func newBindError(server string, err error) *BindError {
	code, name := resultOf(err)
	return &BindError{Server: server, Code: code, Name: name, Err: err}
}

// WriteError reports an add, modify or delete rejected by the server.
// The protocol result code and name are preserved as-is; retrying is
// the caller's decision.
type WriteError struct {
	Op   string
	DN   string
	Code uint16
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ldapx: %s %q failed: %s (code %d): %v", e.Op, e.DN, e.Name, e.Code, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func newWriteError(op, dn string, err error) *WriteError {
	code, name := resultOf(err)
	return &WriteError{Op: op, DN: dn, Code: code, Name: name, Err: err}
}

// SearchError reports a failed search request, as opposed to a fault on
// an individual streamed entry.
type SearchError struct {
	Base   string
	Filter string
	Code   uint16
	Name   string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("ldapx: search base %q filter %q failed: %s (code %d): %v", e.Base, e.Filter, e.Name, e.Code, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

func newSearchError(base, filter string, err error) *SearchError {
	code, name := resultOf(err)
	return &SearchError{Base: base, Filter: filter, Code: code, Name: name, Err: err}
}

// StreamError reports a fault while draining a streaming search.
// Continuable faults are skipped by the engine and never escape; only
// fatal ones reach the caller, after the connection has been marked
// defunct.
type StreamError struct {
	Continuable bool
	Err         error
}

func (e *StreamError) Error() string {
	kind := "fatal"
	if e.Continuable {
		kind = "continuable"
	}
	return fmt.Sprintf("ldapx: %s stream fault: %v", kind, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// resultOf extracts the protocol result code and its standard name from
// an engine error. Client-side faults map onto go-ldap's pseudo codes
// (network, unavailable, ...).
func resultOf(err error) (uint16, string) {
	var le *ldap.Error
	if errors.As(err, &le) {
		return le.ResultCode, ldap.LDAPResultCodeMap[le.ResultCode]
	}
	return 0, ""
}

// hasResultCode reports whether err carries one of the given protocol
// result codes anywhere in its chain.
func hasResultCode(err error, codes ...uint16) bool {
	var le *ldap.Error
	if !errors.As(err, &le) {
		return false
	}
	for _, c := range codes {
		if le.ResultCode == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err stems from a noSuchObject result.
func IsNotFound(err error) bool {
	return hasResultCode(err, ldap.LDAPResultNoSuchObject)
}

// IsAlreadyExists reports whether err stems from an entryAlreadyExists
// or attributeOrValueExists result.
func IsAlreadyExists(err error) bool {
	return hasResultCode(err, ldap.LDAPResultEntryAlreadyExists, ldap.LDAPResultAttributeOrValueExists)
}

// IsAuthError reports whether err stems from rejected credentials.
func IsAuthError(err error) bool {
	return hasResultCode(err,
		ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired,
	)
}
