package tappy

// TagType describes a tag technology the reader can identify.
type TagType struct {
	ID          int
	Description string
}

// TagTypeResolver looks up the description of a tag type id. A miss is a
// normal outcome.
type TagTypeResolver interface {
	ResolveTagType(id int) (TagType, bool)
}

// TagTypeTable is a TagTypeResolver backed by a map of id to description.
type TagTypeTable map[int]string

// ResolveTagType implements TagTypeResolver.
func (t TagTypeTable) ResolveTagType(id int) (TagType, bool) {
	desc, ok := t[id]
	if !ok {
		return TagType{}, false
	}
	return TagType{ID: id, Description: desc}, true
}

// Tag type ids reported in TagFound responses.
const (
	TagTypeUnknown           = 0x00
	TagTypeMifareUltralight  = 0x01
	TagTypeNtag203           = 0x02
	TagTypeMifareUltralightC = 0x03
	TagTypeMifareClassic1K   = 0x04
	TagTypeMifareClassic4K   = 0x05
	TagTypeDesfireEV1_2K     = 0x06
	TagTypeGenericType2      = 0x07
	TagTypeMifarePlus2K      = 0x08
	TagTypeMifarePlus4K      = 0x09
	TagTypeMifareMini        = 0x0A
	TagTypeGenericType4      = 0x0B
	TagTypeDesfireEV1_4K     = 0x0C
	TagTypeDesfireEV1_8K     = 0x0D
	TagTypeDesfire           = 0x0E
	TagTypeTopaz512          = 0x0F
	TagTypeNtag210           = 0x10
	TagTypeNtag212           = 0x11
	TagTypeNtag213           = 0x12
	TagTypeNtag215           = 0x13
	TagTypeNtag216           = 0x14
)

// DefaultTagTypes is the tag type table of the Tappy firmware.
// TagTypeUnknown is deliberately absent so unknown tags print without a
// description.
var DefaultTagTypes = TagTypeTable{
	TagTypeMifareUltralight:  "MIFARE Ultralight",
	TagTypeNtag203:           "NTAG 203",
	TagTypeMifareUltralightC: "MIFARE Ultralight C",
	TagTypeMifareClassic1K:   "MIFARE Classic 1K",
	TagTypeMifareClassic4K:   "MIFARE Classic 4K",
	TagTypeDesfireEV1_2K:     "MIFARE DESFire EV1 2K",
	TagTypeGenericType2:      "Generic NFC Forum Type 2",
	TagTypeMifarePlus2K:      "MIFARE Plus 2K",
	TagTypeMifarePlus4K:      "MIFARE Plus 4K",
	TagTypeMifareMini:        "MIFARE Mini",
	TagTypeGenericType4:      "Generic NFC Forum Type 4",
	TagTypeDesfireEV1_4K:     "MIFARE DESFire EV1 4K",
	TagTypeDesfireEV1_8K:     "MIFARE DESFire EV1 8K",
	TagTypeDesfire:           "MIFARE DESFire",
	TagTypeTopaz512:          "Topaz 512",
	TagTypeNtag210:           "NTAG 210",
	TagTypeNtag212:           "NTAG 212",
	TagTypeNtag213:           "NTAG213",
	TagTypeNtag215:           "NTAG215",
	TagTypeNtag216:           "NTAG216",
}
