// Package layout decodes fixed-width on-chain account data into named-field
// records. A Schema is a linear sequence of typed field descriptors; decoding
// consumes the buffer strictly left to right with no backtracking.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrSchemaMismatch is returned when a buffer cannot satisfy a schema,
// typically because it is shorter than the schema's declared width.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Kind identifies the encoding of one field.
type Kind int

const (
	// KindUint8 is a single unsigned byte.
	KindUint8 Kind = iota
	// KindUint64 is a little-endian 64-bit unsigned integer.
	KindUint64
	// KindUint128 is a little-endian 128-bit unsigned integer (16 bytes).
	KindUint128
	// KindBytes is a fixed-length raw byte block.
	KindBytes
	// KindPadding is a skip region; bytes are consumed and discarded.
	KindPadding
	// KindFlags is a bit-packed set of single-bit flags. Bit order is
	// least-significant-bit-first over the declared flag names; remaining
	// bits are reserved and ignored.
	KindFlags
)

// Field describes one fixed-width segment of an account layout.
type Field struct {
	Name  string
	Kind  Kind
	Width int      // bytes
	Flags []string // KindFlags only, LSB-first
}

// Uint8 declares a one-byte unsigned integer field.
func Uint8(name string) Field { return Field{Name: name, Kind: KindUint8, Width: 1} }

// Uint64 declares a little-endian 64-bit unsigned integer field.
func Uint64(name string) Field { return Field{Name: name, Kind: KindUint64, Width: 8} }

// Uint128 declares a little-endian 128-bit unsigned integer field.
func Uint128(name string) Field { return Field{Name: name, Kind: KindUint128, Width: 16} }

// Blob declares a fixed-length raw byte field.
func Blob(name string, width int) Field { return Field{Name: name, Kind: KindBytes, Width: width} }

// Padding declares a skip region of the given byte width.
func Padding(width int) Field { return Field{Kind: KindPadding, Width: width} }

// FlagSet declares a bit-packed flag field of the given byte width. Flag
// names map onto bits LSB-first.
func FlagSet(name string, width int, flags ...string) Field {
	return Field{Name: name, Kind: KindFlags, Width: width, Flags: flags}
}

// Flags holds decoded single-bit flags keyed by name.
type Flags map[string]bool

// Record is a decoded named-field account. Records are transient: they exist
// for one decode-and-consume cycle and are never shared across requests.
type Record map[string]interface{}

// Uint8 returns the named byte field, or zero if absent.
func (r Record) Uint8(name string) uint8 {
	v, _ := r[name].(uint8)
	return v
}

// Uint64 returns the named 64-bit field, or zero if absent.
func (r Record) Uint64(name string) uint64 {
	v, _ := r[name].(uint64)
	return v
}

// Uint128 returns the named 128-bit field, or zero if absent.
func (r Record) Uint128(name string) *big.Int {
	if v, ok := r[name].(*big.Int); ok {
		return v
	}
	return new(big.Int)
}

// Bytes returns the named raw byte field, or nil if absent.
func (r Record) Bytes(name string) []byte {
	v, _ := r[name].([]byte)
	return v
}

// FlagSet returns the named flag field, or nil if absent.
func (r Record) FlagSet(name string) Flags {
	v, _ := r[name].(Flags)
	return v
}

// Schema is a fixed-width binary record layout.
type Schema struct {
	name   string
	fields []Field
	width  int
}

// NewSchema validates the field sequence and returns a schema whose width is
// the sum of all field widths.
func NewSchema(name string, fields ...Field) (Schema, error) {
	width := 0
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		switch f.Kind {
		case KindUint8:
			if f.Width != 1 {
				return Schema{}, fmt.Errorf("schema %s: uint8 field %s must be 1 byte", name, f.Name)
			}
		case KindUint64:
			if f.Width != 8 {
				return Schema{}, fmt.Errorf("schema %s: uint64 field %s must be 8 bytes", name, f.Name)
			}
		case KindUint128:
			if f.Width != 16 {
				return Schema{}, fmt.Errorf("schema %s: uint128 field %s must be 16 bytes", name, f.Name)
			}
		case KindBytes, KindPadding:
			if f.Width <= 0 {
				return Schema{}, fmt.Errorf("schema %s: field %q has non-positive width", name, f.Name)
			}
		case KindFlags:
			if f.Width <= 0 || f.Width > 8 {
				return Schema{}, fmt.Errorf("schema %s: flag field %s width must be 1..8 bytes", name, f.Name)
			}
			if len(f.Flags) > f.Width*8 {
				return Schema{}, fmt.Errorf("schema %s: flag field %s declares %d flags in %d bits",
					name, f.Name, len(f.Flags), f.Width*8)
			}
		default:
			return Schema{}, fmt.Errorf("schema %s: field %q has unknown kind", name, f.Name)
		}
		if f.Kind != KindPadding {
			if f.Name == "" {
				return Schema{}, fmt.Errorf("schema %s: unnamed field", name)
			}
			if seen[f.Name] {
				return Schema{}, fmt.Errorf("schema %s: duplicate field %s", name, f.Name)
			}
			seen[f.Name] = true
		}
		width += f.Width
	}
	return Schema{name: name, fields: fields, width: width}, nil
}

// MustSchema is NewSchema that panics on an invalid declaration. Intended for
// package-level schema variables.
func MustSchema(name string, fields ...Field) Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s Schema) Name() string { return s.name }

// Width returns the schema's fixed total width in bytes.
func (s Schema) Width() int { return s.width }

// Offset returns the byte offset of a named field within the layout. Useful
// for building byte-equality scan filters against the raw account data.
func (s Schema) Offset(name string) (int, bool) {
	off := 0
	for _, f := range s.fields {
		if f.Kind != KindPadding && f.Name == name {
			return off, true
		}
		off += f.Width
	}
	return 0, false
}

// Decode reads a buffer into a named-field record. Buffers shorter than the
// schema width fail with ErrSchemaMismatch; trailing bytes beyond the width
// are ignored.
func (s Schema) Decode(buf []byte) (Record, error) {
	if len(buf) < s.width {
		return nil, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrSchemaMismatch, s.name, s.width, len(buf))
	}
	rec := make(Record, len(s.fields))
	off := 0
	for _, f := range s.fields {
		seg := buf[off : off+f.Width]
		switch f.Kind {
		case KindPadding:
			// consumed, discarded
		case KindUint8:
			rec[f.Name] = seg[0]
		case KindUint64:
			rec[f.Name] = binary.LittleEndian.Uint64(seg)
		case KindUint128:
			rec[f.Name] = uint128(seg)
		case KindBytes:
			b := make([]byte, f.Width)
			copy(b, seg)
			rec[f.Name] = b
		case KindFlags:
			rec[f.Name] = decodeFlags(seg, f.Flags)
		}
		off += f.Width
	}
	// Total consumed width must equal the declared width exactly.
	if off != s.width {
		return nil, fmt.Errorf("%w: %s consumed %d of %d bytes", ErrSchemaMismatch, s.name, off, s.width)
	}
	return rec, nil
}

// Encode serializes a record to the schema's exact width. Missing fields
// encode as zero; padding regions encode as zero bytes.
func (s Schema) Encode(rec Record) ([]byte, error) {
	buf := make([]byte, s.width)
	off := 0
	for _, f := range s.fields {
		seg := buf[off : off+f.Width]
		switch f.Kind {
		case KindPadding:
		case KindUint8:
			seg[0] = rec.Uint8(f.Name)
		case KindUint64:
			binary.LittleEndian.PutUint64(seg, rec.Uint64(f.Name))
		case KindUint128:
			v := rec.Uint128(f.Name)
			be := v.Bytes()
			if len(be) > 16 {
				return nil, fmt.Errorf("schema %s: field %s overflows 128 bits", s.name, f.Name)
			}
			for i, b := range be {
				seg[len(be)-1-i] = b
			}
		case KindBytes:
			src := rec.Bytes(f.Name)
			if len(src) > f.Width {
				return nil, fmt.Errorf("schema %s: field %s is %d bytes, layout holds %d",
					s.name, f.Name, len(src), f.Width)
			}
			copy(seg, src)
		case KindFlags:
			fl := rec.FlagSet(f.Name)
			var bits uint64
			for i, name := range f.Flags {
				if fl[name] {
					bits |= 1 << uint(i)
				}
			}
			for i := 0; i < f.Width; i++ {
				seg[i] = byte(bits >> (8 * uint(i)))
			}
		}
		off += f.Width
	}
	return buf, nil
}

// uint128 converts 16 little-endian bytes to a big integer.
func uint128(b []byte) *big.Int {
	be := make([]byte, 16)
	for i := range be {
		be[i] = b[15-i]
	}
	return new(big.Int).SetBytes(be)
}

func decodeFlags(seg []byte, names []string) Flags {
	var bits uint64
	for i, b := range seg {
		bits |= uint64(b) << (8 * uint(i))
	}
	fl := make(Flags, len(names))
	for i, name := range names {
		fl[name] = bits>>uint(i)&1 == 1
	}
	return fl
}
