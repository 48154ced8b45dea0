package variant

import (
	"strconv"
	"strings"
)

// Value is a spreadsheet variant. Only the payload fields selected by Type
// are meaningful.
type Value struct {
	// Str is a counted buffer: Str[0] is the length, the text follows.
	Str   []byte
	Array []Value
	Num   float64
	// Handle is host bookkeeping for values the host allocated. It is not
	// part of the ABI layout and is zero for codec- and caller-built values.
	Handle uint32
	Type   Type
	Err    ErrCode
	Rows   uint16
	Cols   uint16
	Int    int16
	Bool   bool
}

// FP is the host's untagged fixed-size numeric array.
type FP struct {
	Array []float64
	Rows  uint16
	Cols  uint16
}

// Num returns a number variant.
func Num(x float64) Value {
	return Value{Type: TypeNum, Num: x}
}

// Int returns an int variant.
func Int(w int16) Value {
	return Value{Type: TypeInt, Int: w}
}

// Bool returns a boolean variant.
func Bool(b bool) Value {
	return Value{Type: TypeBool, Bool: b}
}

// Err returns an error variant.
func Err(code ErrCode) Value {
	return Value{Type: TypeErr, Err: code}
}

// Missing returns the variant the host passes for an omitted argument.
func Missing() Value {
	return Value{Type: TypeMissing}
}

// Nil returns the variant for an empty cell.
func Nil() Value {
	return Value{Type: TypeNil}
}

// Str returns a borrowed text variant. Text beyond MaxStrLen bytes is cut.
func Str(s string) Value {
	return Value{Type: TypeStr, Str: Counted(s)}
}

// Multi returns a borrowed rows x cols array variant over elems, which must
// hold rows*cols values in row-major order.
func Multi(rows, cols uint16, elems ...Value) Value {
	return Value{Type: TypeMulti, Rows: rows, Cols: cols, Array: elems}
}

// Counted builds a counted text buffer, truncating s to MaxStrLen bytes.
func Counted(s string) []byte {
	n := min(len(s), MaxStrLen)
	buf := make([]byte, n+1)
	buf[0] = byte(n)
	copy(buf[1:], s[:n])
	return buf
}

// Text returns the text payload. A length prefix larger than the buffer is
// clamped to what the buffer holds.
func (v *Value) Text() string {
	if len(v.Str) == 0 {
		return ""
	}
	n := int(v.Str[0])
	if n > len(v.Str)-1 {
		n = len(v.Str) - 1
	}
	return string(v.Str[1 : 1+n])
}

// Len returns Rows*Cols.
func (v *Value) Len() int {
	return int(v.Rows) * int(v.Cols)
}

// At returns the element at row r, column c of a multi value.
func (v *Value) At(r, c int) *Value {
	return &v.Array[r*int(v.Cols)+c]
}

func (v Value) String() string {
	var b strings.Builder
	v.format(&b)
	return b.String()
}

func (v *Value) format(b *strings.Builder) {
	switch v.Type.Base() {
	case TypeNum:
		b.WriteString("num(")
		b.WriteString(strconv.FormatFloat(v.Num, 'g', -1, 64))
		b.WriteByte(')')
	case TypeInt:
		b.WriteString("int(")
		b.WriteString(strconv.Itoa(int(v.Int)))
		b.WriteByte(')')
	case TypeBool:
		b.WriteString("bool(")
		b.WriteString(strconv.FormatBool(v.Bool))
		b.WriteByte(')')
	case TypeStr:
		b.WriteString("str(")
		b.WriteString(strconv.Quote(v.Text()))
		b.WriteByte(')')
	case TypeErr:
		b.WriteString("err(")
		b.WriteString(v.Err.String())
		b.WriteByte(')')
	case TypeMissing:
		b.WriteString("missing")
	case TypeNil:
		b.WriteString("nil")
	case TypeMulti:
		b.WriteString("multi[")
		b.WriteString(strconv.Itoa(int(v.Rows)))
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(int(v.Cols)))
		b.WriteString("]{")
		for i := range v.Array {
			if i > 0 {
				if v.Cols > 0 && i%int(v.Cols) == 0 {
					b.WriteString("; ")
				} else {
					b.WriteString(", ")
				}
			}
			v.Array[i].format(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString(v.Type.String())
	}
}
