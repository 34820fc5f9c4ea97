package ast

import "fmt"

// Type is the closed set of types from spec.md section 3: two scalar
// widths and a function type built from them. Equality is structural, so
// plain == works for Int/Long but Function needs Equal below.
type Type interface {
	isType()
	String() string
	Equal(Type) bool
}

type IntType struct{}

type LongType struct{}

type FunctionType struct {
	Params []Type
	Return Type
}

func (IntType) isType()      {}
func (LongType) isType()     {}
func (FunctionType) isType() {}

func (IntType) String() string  { return "int" }
func (LongType) String() string { return "long" }
func (f FunctionType) String() string {
	return fmt.Sprintf("fn(%d)->%v", len(f.Params), f.Return)
}

func (IntType) Equal(o Type) bool {
	_, ok := o.(IntType)
	return ok
}

func (LongType) Equal(o Type) bool {
	_, ok := o.(LongType)
	return ok
}

func (f FunctionType) Equal(o Type) bool {
	of, ok := o.(FunctionType)
	if !ok || len(f.Params) != len(of.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equal(of.Params[i]) {
			return false
		}
	}
	return f.Return.Equal(of.Return)
}

// IsLong reports whether t is the 64-bit integer type. Used all over the
// IR generator and codegen to pick instruction width.
func IsLong(t Type) bool {
	_, ok := t.(LongType)
	return ok
}

// CommonType returns the "common type" of spec.md section 4.1.2: Long if
// either operand is Long, else Int.
func CommonType(a, b Type) Type {
	if IsLong(a) || IsLong(b) {
		return LongType{}
	}
	return IntType{}
}

// Const is ConstInt(i32) or ConstLong(i64) from spec.md section 3.
type Const interface {
	isConst()
	Type() Type
	String() string
	// AsInt64 returns the numeric value widened to int64, used by the
	// constant folder and the assembly Imm operand.
	AsInt64() int64
}

type ConstInt int32

type ConstLong int64

func (ConstInt) isConst()  {}
func (ConstLong) isConst() {}

func (ConstInt) Type() Type  { return IntType{} }
func (ConstLong) Type() Type { return LongType{} }

func (c ConstInt) String() string  { return fmt.Sprintf("%d", int32(c)) }
func (c ConstLong) String() string { return fmt.Sprintf("%dL", int64(c)) }

func (c ConstInt) AsInt64() int64  { return int64(c) }
func (c ConstLong) AsInt64() int64 { return int64(c) }

// ConvertConst converts a constant to the target type, per the
// truncation/sign-extension semantics spec.md section 8 property 7 names
// (two's-complement wrap-around, truncation on Long->Int).
func ConvertConst(c Const, target Type) Const {
	switch target.(type) {
	case LongType:
		return ConstLong(c.AsInt64())
	case IntType:
		return ConstInt(int32(c.AsInt64()))
	default:
		panic("cast target must be a scalar type")
	}
}
