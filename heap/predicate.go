package heap

import (
	"encoding/binary"
	"github.com/pkg/errors"
	"heapfile/common"
	"math"
)

type Datatype int

const (
	Integer Datatype = iota
	Float
	String
)

func (t Datatype) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return "unknown"
}

type Operator int

const (
	LT Operator = iota
	LTE
	EQ
	GTE
	GT
	NE
)

func (o Operator) String() string {
	switch o {
	case LT:
		return "<"
	case LTE:
		return "<="
	case EQ:
		return "="
	case GTE:
		return ">="
	case GT:
		return ">"
	case NE:
		return "!="
	}
	return "?"
}

// Predicate compares Length bytes at Offset of a record with Value. Integers are 4 byte big endian int32, floats are
// 4 byte big endian float32. Strings are compared like C strings, comparison stops at the first zero byte.
type Predicate struct {
	Offset int
	Length int
	Type   Datatype
	Op     Operator
	Value  []byte
}

func IntPredicate(offset int, op Operator, val int32) *Predicate {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(val))
	return &Predicate{Offset: offset, Length: 4, Type: Integer, Op: op, Value: v}
}

func FloatPredicate(offset int, op Operator, val float32) *Predicate {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, math.Float32bits(val))
	return &Predicate{Offset: offset, Length: 4, Type: Float, Op: op, Value: v}
}

// StringPredicate compares length bytes at offset with val. val is zero padded or truncated to length.
func StringPredicate(offset, length int, op Operator, val string) *Predicate {
	v := make([]byte, max(length, 0))
	copy(v, val)
	return &Predicate{Offset: offset, Length: length, Type: String, Op: op, Value: v}
}

// Validate checks that the predicate can be evaluated. A nil predicate is valid and matches everything.
func (p *Predicate) Validate() error {
	if p == nil {
		return nil
	}

	if p.Offset < 0 {
		return errors.Wrapf(ErrInvalidScanParameter, "negative offset %d", p.Offset)
	}
	if p.Length < 1 {
		return errors.Wrapf(ErrInvalidScanParameter, "length %d", p.Length)
	}

	switch p.Type {
	case Integer, Float:
		if p.Length != 4 || len(p.Value) != 4 {
			return errors.Wrapf(ErrInvalidScanParameter, "%v needs 4 bytes, length %d value %d", p.Type, p.Length, len(p.Value))
		}
	case String:
	default:
		return errors.Wrapf(ErrInvalidScanParameter, "unknown type %d", int(p.Type))
	}

	if p.Op < LT || p.Op > NE {
		return errors.Wrapf(ErrInvalidScanParameter, "unknown operator %d", int(p.Op))
	}

	return nil
}

// Match reports whether data satisfies the predicate. A record too short to hold the field does not match.
func (p *Predicate) Match(data []byte) bool {
	if p == nil {
		return true
	}

	// compared without adding, an offset close to MaxInt would wrap
	if p.Offset < 0 || p.Offset > len(data) || p.Length > len(data)-p.Offset {
		return false
	}
	field := data[p.Offset : p.Offset+p.Length]

	var diff float64
	switch p.Type {
	case Integer:
		a := int32(binary.BigEndian.Uint32(field))
		b := int32(binary.BigEndian.Uint32(p.Value))
		diff = float64(a) - float64(b)
	case Float:
		a := math.Float32frombits(binary.BigEndian.Uint32(field))
		b := math.Float32frombits(binary.BigEndian.Uint32(p.Value))
		diff = float64(a) - float64(b)
	case String:
		diff = float64(common.CStringCompare(field, p.Value, p.Length))
	default:
		return false
	}

	return applyOp(p.Op, diff)
}

func applyOp(op Operator, diff float64) bool {
	switch op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	}
	return false
}
