package persist

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt(b []byte, num protowire.Number, v int) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// appendPacked writes a packed repeated field of zigzag varints
func appendPacked[T ~int](b []byte, num protowire.Number, values []T) []byte {
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
	}
	return appendMessage(b, num, packed)
}

// field is one decoded tag/value pair
type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

// parseFields walks a message and calls fn for each field.
// Fields of unknown wire types are skipped.
func parseFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.value, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// reader converts field values and remembers the first wire type mismatch
type reader struct {
	err error
}

func (r *reader) expect(f field, typ protowire.Type) bool {
	if f.typ == typ {
		return true
	}
	if r.err == nil {
		r.err = fmt.Errorf("field %d has wire type %d, expected %d", f.num, f.typ, typ)
	}
	return false
}

func (r *reader) int(f field) int {
	if !r.expect(f, protowire.VarintType) {
		return 0
	}
	return int(protowire.DecodeZigZag(f.value))
}

func (r *reader) bool(f field) bool {
	if !r.expect(f, protowire.VarintType) {
		return false
	}
	return protowire.DecodeBool(f.value)
}

func (r *reader) double(f field) float64 {
	if !r.expect(f, protowire.Fixed64Type) {
		return 0
	}
	return math.Float64frombits(f.value)
}

func (r *reader) string(f field) string {
	if !r.expect(f, protowire.BytesType) {
		return ""
	}
	return string(f.bytes)
}

func (r *reader) message(f field) []byte {
	if !r.expect(f, protowire.BytesType) {
		return nil
	}
	return f.bytes
}

// packed reads a packed repeated field of zigzag varints
func packed[T ~int](r *reader, f field) []T {
	b := r.message(f)
	var values []T
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			if r.err == nil {
				r.err = fmt.Errorf("field %d: %w", f.num, protowire.ParseError(n))
			}
			return nil
		}
		values = append(values, T(protowire.DecodeZigZag(v)))
		b = b[n:]
	}
	return values
}
