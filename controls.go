package ldapx

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
)

// RFC 4527 read-entry control OIDs. go-ldap has no built-in support for
// these, so the request control is encoded here and the response control
// is parsed out of the raw control value.
const (
	ControlTypePreRead  = "1.3.6.1.1.13.1"
	ControlTypePostRead = "1.3.6.1.1.13.2"
)

// readEntryControl asks the server to return the named attributes of
// the target entry before (pre-read) or after (post-read) a write. It
// is attached non-critically: a server without RFC 4527 support simply
// omits the response control.
type readEntryControl struct {
	oid   string
	attrs []string
}

func (c *readEntryControl) GetControlType() string { return c.oid }

func (c *readEntryControl) Encode() *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, c.oid, "Control Type (Read Entry)"))

	selection := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Attribute Selection")
	for _, a := range c.attrs {
		selection.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, a, "Attribute"))
	}

	value := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value (Read Entry)")
	value.AppendChild(selection)
	packet.AppendChild(value)
	return packet
}

func (c *readEntryControl) String() string {
	kind := "Pre-Read"
	if c.oid == ControlTypePostRead {
		kind = "Post-Read"
	}
	return fmt.Sprintf("%s Control (%s) attributes=%v", kind, c.oid, c.attrs)
}

// readControls builds the request controls for the given pre-/post-read
// attribute selections. Both empty yields nil: no control, and no
// read-back entry in the result.
func readControls(preRead, postRead []string) []ldap.Control {
	var controls []ldap.Control
	if len(preRead) > 0 {
		controls = append(controls, &readEntryControl{oid: ControlTypePreRead, attrs: preRead})
	}
	if len(postRead) > 0 {
		controls = append(controls, &readEntryControl{oid: ControlTypePostRead, attrs: postRead})
	}
	return controls
}

// decodeReadEntry extracts the entry carried by an RFC 4527 response
// control, or nil when the server did not return one. go-ldap surfaces
// unknown response controls as ControlString with the raw BER value.
func decodeReadEntry(controls []ldap.Control, oid string) *Entry {
	for _, ctl := range controls {
		if ctl.GetControlType() != oid {
			continue
		}
		cs, ok := ctl.(*ldap.ControlString)
		if !ok {
			return nil
		}
		return parseReadEntryValue([]byte(cs.ControlValue))
	}
	return nil
}

// parseReadEntryValue decodes the SearchResultEntry carried in a read
// control value: SEQUENCE { objectName, PartialAttributeList }.
func parseReadEntryValue(data []byte) *Entry {
	if len(data) == 0 {
		return nil
	}
	packet := ber.DecodePacket(data)
	if packet == nil || len(packet.Children) < 2 {
		return nil
	}

	dn, _ := packet.Children[0].Value.(string)
	le := &ldap.Entry{DN: dn}
	for _, attr := range packet.Children[1].Children {
		if len(attr.Children) < 2 {
			continue
		}
		name, ok := attr.Children[0].Value.(string)
		if !ok || name == "" {
			continue
		}
		var values []string
		for _, v := range attr.Children[1].Children {
			if s, ok := v.Value.(string); ok {
				values = append(values, s)
			}
		}
		le.Attributes = append(le.Attributes, &ldap.EntryAttribute{Name: name, Values: values})
	}
	return decodeEntry(le, true)
}
