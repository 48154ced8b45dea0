package variant

import "strings"

// Type is the variant tag, including ownership bits.
type Type uint16

const (
	TypeNum     Type = 0x0001
	TypeStr     Type = 0x0002
	TypeBool    Type = 0x0004
	TypeRef     Type = 0x0008
	TypeErr     Type = 0x0010
	TypeFlow    Type = 0x0020
	TypeMulti   Type = 0x0040
	TypeMissing Type = 0x0080
	TypeNil     Type = 0x0100
	TypeSRef    Type = 0x0400
	TypeInt     Type = 0x0800

	BitXLFree  Type = 0x1000
	BitDLLFree Type = 0x4000
)

// TypeValue asks a coercion to resolve references into whatever value type
// they hold, without forcing a particular tag.
const TypeValue Type = 0

const ownershipBits = BitXLFree | BitDLLFree

// MaxStrLen is the longest text a variant can carry.
const MaxStrLen = 255

// MaxDim is the largest row or column count of a multi value.
const MaxDim = 0xFFFF

// Base strips the ownership bits.
func (t Type) Base() Type {
	return t &^ ownershipBits
}

// Is reports whether the base tag equals want.
func (t Type) Is(want Type) bool {
	return t.Base() == want
}

// IsMissing reports whether t is the missing or nil tag, which the codec
// treats as an unset argument.
func (t Type) IsMissing() bool {
	return t&(TypeMissing|TypeNil) != 0
}

// DLLFree reports whether the caller must free the value's buffers.
func (t Type) DLLFree() bool {
	return t&BitDLLFree != 0
}

// XLFree reports whether the value must be released through the host.
func (t Type) XLFree() bool {
	return t&BitXLFree != 0
}

var typeNames = []struct {
	t    Type
	name string
}{
	{TypeNum, "num"},
	{TypeStr, "str"},
	{TypeBool, "bool"},
	{TypeRef, "ref"},
	{TypeErr, "err"},
	{TypeFlow, "flow"},
	{TypeMulti, "multi"},
	{TypeMissing, "missing"},
	{TypeNil, "nil"},
	{TypeSRef, "sref"},
	{TypeInt, "int"},
}

func (t Type) String() string {
	if t == TypeValue {
		return "value"
	}
	base := t.Base()
	name := ""
	for _, tn := range typeNames {
		if tn.t == base {
			name = tn.name
			break
		}
	}
	if name == "" {
		var parts []string
		for _, tn := range typeNames {
			if base&tn.t != 0 {
				parts = append(parts, tn.name)
			}
		}
		name = strings.Join(parts, "|")
		if name == "" {
			name = "unknown"
		}
	}
	if t.XLFree() {
		name += "|xlfree"
	}
	if t.DLLFree() {
		name += "|dllfree"
	}
	return name
}

// ErrCode is the payload of an err variant.
type ErrCode uint16

const (
	ErrNull  ErrCode = 0
	ErrDiv0  ErrCode = 7
	ErrValue ErrCode = 15
	ErrRef   ErrCode = 23
	ErrName  ErrCode = 29
	ErrNum   ErrCode = 36
	ErrNA    ErrCode = 42
)

func (e ErrCode) String() string {
	switch e {
	case ErrNull:
		return "#NULL!"
	case ErrDiv0:
		return "#DIV/0!"
	case ErrValue:
		return "#VALUE!"
	case ErrRef:
		return "#REF!"
	case ErrName:
		return "#NAME?"
	case ErrNum:
		return "#NUM!"
	case ErrNA:
		return "#N/A"
	default:
		return "#ERR?"
	}
}
