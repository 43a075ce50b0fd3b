package ldapx

import "strings"

// EscapeDN escapes a DN attribute value per RFC 4514: the special
// characters , + " \ < > ; everywhere, # when leading, spaces when
// leading or trailing, and NUL as \00. Filter values are different;
// escape those with ldap.EscapeFilter.
func EscapeDN(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '#':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case 0:
			b.WriteString("\\00")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeDN reverses EscapeDN, handling both \c character escapes and
// \XX hex escapes. Malformed trailing escapes are passed through
// verbatim rather than dropped.
func UnescapeDN(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+2 < len(value) {
			if hi, ok := hexVal(value[i+1]); ok {
				if lo, ok := hexVal(value[i+2]); ok {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
		}
		if i+1 < len(value) {
			b.WriteByte(value[i+1])
			i++
			continue
		}
		// Trailing backslash with nothing to escape.
		b.WriteByte(c)
	}
	return b.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
