package ldapx

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

// Active Directory stores objectSid and objectGUID as binary values.
// The codec deliberately keeps attribute values as opaque strings;
// these helpers render the two common binary attributes readable.

// SIDString renders a binary objectSid value in its S-1-... form.
func SIDString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("binary SID is empty")
	}
	return objectsid.Decode(b).String(), nil
}

// GUIDString renders a binary objectGUID value as a canonical UUID.
// The first three fields are stored little-endian and are swapped back.
func GUIDString(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("binary GUID must be 16 bytes, got %d", len(b))
	}

	ordered := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}
	u, err := uuid.FromBytes(ordered)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
