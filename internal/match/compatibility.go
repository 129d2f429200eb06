package match

import (
	"reflect"

	"projector/internal/analyze"
	"projector/internal/common"
	"projector/primitive"
)

// TypeCompatibility represents the level of compatibility between two types.
type TypeCompatibility int

const (
	// TypeIncompatible means no value of the source can become the target.
	TypeIncompatible TypeCompatibility = iota
	// TypeNeedsTransform means the value must be coerced or re-projected.
	TypeNeedsTransform
	// TypeConvertible means a plain Go conversion is enough.
	TypeConvertible
	// TypeAssignable means the source type can be directly assigned to the target.
	TypeAssignable
	// TypeIdentical means the types are exactly the same.
	TypeIdentical
)

const (
	VerdictIdentical      = "identical"
	VerdictAssignable     = "assignable"
	VerdictConvertible    = "convertible"
	VerdictNeedsTransform = "needs_transform"
	VerdictIncompatible   = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeConvertible:
		return VerdictConvertible
	case TypeNeedsTransform:
		return VerdictNeedsTransform
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return common.UnknownStr
	}
}

// TypeCompatibilityResult contains detailed information about type compatibility.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string // Human-readable explanation
	SourceType    string
	TargetType    string
}

// ScoreTypeCompatibility determines how a value of source type reaches the
// target type.
func ScoreTypeCompatibility(source, target reflect.Type) TypeCompatibilityResult {
	result := TypeCompatibilityResult{
		SourceType: common.TypeName(source),
		TargetType: common.TypeName(target),
	}

	switch {
	case source == nil || target == nil:
		result.Compatibility, result.Reason = TypeIncompatible, "type information unavailable"
	case source == target:
		result.Compatibility, result.Reason = TypeIdentical, "types are identical"
	case source.AssignableTo(target):
		result.Compatibility, result.Reason = TypeAssignable, "source is assignable to target"
	case isScalar(source) && isScalar(target):
		result.Compatibility, result.Reason = scoreScalars(source, target)
	case source == bytesType && primitive.FromReflectType(target) == primitive.KindUUID:
		// Go converts slices to arrays, but only coercion checks the length
		result.Compatibility, result.Reason = TypeNeedsTransform, "uuid from raw bytes"
	case source.ConvertibleTo(target):
		result.Compatibility, result.Reason = TypeConvertible, "source is convertible to target"
	case needsTransform(source, target):
		result.Compatibility, result.Reason = TypeNeedsTransform, "types require coercion or projection"
	default:
		result.Compatibility, result.Reason = TypeIncompatible, "types are not compatible"
	}

	return result
}

// scoreScalars keeps Go's int -> string rune conversion out of the ladder:
// only numeric pairs convert, every other scalar pair goes through coercion.
func scoreScalars(source, target reflect.Type) (TypeCompatibility, string) {
	from, to := primitive.FromReflectType(source), primitive.FromReflectType(target)
	if from.IsNumber() && to.IsNumber() {
		return TypeConvertible, "numeric conversion"
	}

	if source.Kind() == target.Kind() && source.ConvertibleTo(target) {
		return TypeConvertible, "same underlying kind"
	}

	return TypeNeedsTransform, "scalar coercion from " + from.String() + " to " + to.String()
}

func needsTransform(source, target reflect.Type) bool {
	if source.Kind() == reflect.Pointer && target.Kind() != reflect.Pointer {
		return ScoreTypeCompatibility(source.Elem(), target).Compatibility > TypeIncompatible
	}

	if target.Kind() == reflect.Pointer && source.Kind() != reflect.Pointer {
		return ScoreTypeCompatibility(source, target.Elem()).Compatibility > TypeIncompatible
	}

	switch {
	case isSequence(source) && isSequence(target):
		return ScoreTypeCompatibility(source.Elem(), target.Elem()).Compatibility > TypeIncompatible
	case target.Kind() == reflect.Struct:
		// struct targets are contracts or plain values reached by projection
		return analyze.IsNavigable(source) || analyze.IsDictionary(source)
	}

	return false
}

var bytesType = reflect.TypeFor[[]byte]()

func isScalar(t reflect.Type) bool {
	return primitive.FromReflectType(t) != 0
}

func isSequence(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}
