package ldapx

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol-standard ports and the local fallback address.
const (
	DefaultAddress = "localhost"
	DefaultPort    = 389
	DefaultTLSPort = 636
)

// Host is a structured endpoint specification. A zero Port defers to
// the protocol-standard default for the chosen transport.
type Host struct {
	Address string
	Port    int
}

// scheme values recorded during resolution. An empty scheme means the
// transport is decided by Options.SSL.
const (
	schemePlain = "ldap"
	schemeTLS   = "ldaps"
)

// endpoint is a resolved host. Port stays zero until the connection
// strategy applies its transport-dependent default.
type endpoint struct {
	host   string
	port   int
	scheme string
}

// useTLS resolves the endpoint transport against the pool-wide flag. A
// URL scheme on the individual endpoint wins.
func (e *endpoint) useTLS(ssl bool) bool {
	switch e.scheme {
	case schemeTLS:
		return true
	case schemePlain:
		return false
	default:
		return ssl
	}
}

// addr returns host:port with the transport default applied.
func (e *endpoint) addr(ssl bool) string {
	port := e.port
	if port == 0 {
		if e.useTLS(ssl) {
			port = DefaultTLSPort
		} else {
			port = DefaultPort
		}
	}
	return fmt.Sprintf("%s:%d", e.host, port)
}

// url returns the ldap:// or ldaps:// form used for dialing.
func (e *endpoint) url(ssl bool) string {
	scheme := schemePlain
	if e.useTLS(ssl) {
		scheme = schemeTLS
	}
	return fmt.Sprintf("%s://%s", scheme, e.addr(ssl))
}

// resolveHosts normalizes a host specification into endpoints. Accepted
// shapes: nil, "host", "host:port", "ldap(s)://host[:port]", Host,
// *Host, and slices of any of these. A slice with more than one element
// selects the multi-host connection strategy.
func resolveHosts(spec any) ([]*endpoint, error) {
	switch t := spec.(type) {
	case nil:
		return []*endpoint{{host: DefaultAddress}}, nil
	case string:
		ep, err := resolveString(t)
		if err != nil {
			return nil, err
		}
		return []*endpoint{ep}, nil
	case Host:
		return []*endpoint{resolveStruct(t)}, nil
	case *Host:
		if t == nil {
			return []*endpoint{{host: DefaultAddress}}, nil
		}
		return []*endpoint{resolveStruct(*t)}, nil
	case []string:
		if len(t) == 0 {
			return nil, newConfigError("host collection is empty")
		}
		eps := make([]*endpoint, 0, len(t))
		for _, s := range t {
			ep, err := resolveString(s)
			if err != nil {
				return nil, err
			}
			eps = append(eps, ep)
		}
		return eps, nil
	case []Host:
		if len(t) == 0 {
			return nil, newConfigError("host collection is empty")
		}
		eps := make([]*endpoint, 0, len(t))
		for _, h := range t {
			eps = append(eps, resolveStruct(h))
		}
		return eps, nil
	case []any:
		var eps []*endpoint
		for _, el := range t {
			switch el.(type) {
			case []string, []Host, []any:
				return nil, newConfigError("nested host collections are not supported")
			}
			sub, err := resolveHosts(el)
			if err != nil {
				return nil, err
			}
			eps = append(eps, sub...)
		}
		if len(eps) == 0 {
			return nil, newConfigError("host collection is empty")
		}
		return eps, nil
	default:
		return nil, newConfigError("unsupported host specification %T", spec)
	}
}

// resolveStruct applies the localhost default to a structured host. An
// explicit port is kept as-is; zero defers to the transport default.
func resolveStruct(h Host) *endpoint {
	addr := h.Address
	if addr == "" {
		addr = DefaultAddress
	}
	return &endpoint{host: addr, port: h.Port}
}

// resolveString parses "host", "host:port" and URL forms. The string is
// split on its last colon; an empty address segment maps to localhost
// and an unparsable port segment is left unresolved for the connection
// strategy to default.
func resolveString(s string) (*endpoint, error) {
	if strings.Contains(s, "://") {
		return parseURL(s)
	}

	host, port := s, 0
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		host = s[:idx]
		if p, err := strconv.Atoi(s[idx+1:]); err == nil && p > 0 && p <= 65535 {
			port = p
		}
	}
	if host == "" {
		host = DefaultAddress
	}
	return &endpoint{host: host, port: port}, nil
}

// parseURL handles explicit ldap:// and ldaps:// endpoint forms.
func parseURL(s string) (*endpoint, error) {
	var scheme string
	switch {
	case strings.HasPrefix(s, schemeTLS+"://"):
		scheme = schemeTLS
		s = strings.TrimPrefix(s, schemeTLS+"://")
	case strings.HasPrefix(s, schemePlain+"://"):
		scheme = schemePlain
		s = strings.TrimPrefix(s, schemePlain+"://")
	default:
		return nil, newConfigError("unsupported URL scheme in %q: must be ldap:// or ldaps://", s)
	}

	// Ignore any DN or query component after the authority.
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}

	host, port := s, 0
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		p, err := strconv.Atoi(s[idx+1:])
		if err != nil || p <= 0 || p > 65535 {
			return nil, newConfigError("invalid port in URL %q", s)
		}
		host, port = s[:idx], p
	}
	if host == "" {
		host = DefaultAddress
	}
	return &endpoint{host: host, port: port, scheme: scheme}, nil
}
