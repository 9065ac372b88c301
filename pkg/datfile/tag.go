package datfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Tag is a four byte chunk identifier, stored big-endian on the wire.
type Tag uint32

// Header magics.
const (
	MagicStandard Tag = 0x4B413344 // "KA3D"
	MagicVariant  Tag = 0x5256494F // "RVIO"
)

// Top level and nested segment tags.
const (
	TagSpriteSheet Tag = 0x53505254 // "SPRT"
	TagFont        Tag = 0x464F4E54 // "FONT"
	TagAnimation   Tag = 0x414E494D // "ANIM"
	TagComposite   Tag = 0x434F4D50 // "COMP"
	TagText        Tag = 0x54455854 // "TEXT"
	TagLanguages   Tag = 0x4C444154 // "LDAT"
	TagTextIDs     Tag = 0x4C494453 // "LIDS"
	TagTextGroup   Tag = 0x54584750 // "TXGP"
)

// ParseTag builds a Tag from its four character name.
func ParseTag(s string) (Tag, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("tag %q must be exactly 4 bytes", s)
	}
	return Tag(binary.BigEndian.Uint32([]byte(s))), nil
}

// MustTag is like ParseTag but panics on malformed input.
func MustTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders printable tags as their characters and anything else as hex.
func (t Tag) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return fmt.Sprintf("0x%08X", uint32(t))
		}
	}
	return string(b[:])
}

// Dialect selects one of the two container flavours.
type Dialect uint8

const (
	// Standard containers carry the KA3D magic.
	Standard Dialect = iota
	// Variant containers carry the RVIO magic.
	Variant
)

// Magic returns the header magic written for the dialect.
func (d Dialect) Magic() Tag {
	if d == Variant {
		return MagicVariant
	}
	return MagicStandard
}

func (d Dialect) String() string {
	switch d {
	case Standard:
		return "standard"
	case Variant:
		return "variant"
	default:
		return fmt.Sprintf("dialect(%d)", uint8(d))
	}
}

// ParseDialect accepts the dialect names as well as the header magics.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "ka3d", "":
		return Standard, nil
	case "variant", "rvio":
		return Variant, nil
	}
	return 0, fmt.Errorf("unknown dialect %q", s)
}

func dialectFromMagic(t Tag) (Dialect, bool) {
	switch t {
	case MagicStandard:
		return Standard, true
	case MagicVariant:
		return Variant, true
	}
	return 0, false
}
