package primitive

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var (
	ErrCategoryNotAllowed = errors.New("conversion category is not allowed")
	ErrNotConvertible     = errors.New("value is not convertible")
)

// Converter turns a value into an unrelated representation of the same
// logical value.
type Converter interface {
	Convert(value any, target reflect.Type) (any, error)
}

// ConversionError describes a failed conversion. It wraps the underlying
// parse error or one of the package sentinels.
type ConversionError struct {
	Value  any
	Target reflect.Type
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %T(%v) to %s: %v", e.Value, e.Value, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// CastConverter converts scalar values with spf13/cast, restricted to the
// allowed conversion categories.
type CastConverter struct {
	Allowed CategoryEnum
}

// NewCastConverter returns a converter limited to the given categories.
func NewCastConverter(allowed CategoryEnum) *CastConverter {
	return &CastConverter{Allowed: allowed}
}

// Convert implements Converter. A nil value converts to the zero value of
// target.
func (c *CastConverter) Convert(value any, target reflect.Type) (any, error) {
	if value == nil {
		return reflect.Zero(target).Interface(), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return value, nil
	}

	from, to := FromReflectType(rv.Type()), FromReflectType(target)
	if from == 0 || to == 0 {
		return c.convertComposite(rv, target)
	}

	if !c.Allowed.Allows(from, to) {
		return nil, &ConversionError{Value: value, Target: target, Err: ErrCategoryNotAllowed}
	}

	out, err := castTo(normalize(rv), target, to)
	if err != nil {
		return nil, &ConversionError{Value: value, Target: target, Err: err}
	}

	result := reflect.ValueOf(out)
	if result.Type() != target {
		result = result.Convert(target)
	}

	return result.Interface(), nil
}

func (c *CastConverter) convertComposite(rv reflect.Value, target reflect.Type) (any, error) {
	if target == uuidType && rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		id, err := uuid.FromBytes(rv.Bytes())
		if err != nil {
			return nil, &ConversionError{Value: rv.Interface(), Target: target, Err: err}
		}

		return id, nil
	}

	// pointer results are dereferenced into value targets
	if rv.Kind() == reflect.Pointer && target.Kind() != reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(target).Interface(), nil
		}

		return c.Convert(rv.Elem().Interface(), target)
	}

	if target.Kind() == reflect.Pointer && rv.Type() != target {
		inner, err := c.Convert(rv.Interface(), target.Elem())
		if err != nil {
			return nil, err
		}

		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(reflect.ValueOf(inner))

		return ptr.Interface(), nil
	}

	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface(), nil
	}

	return nil, &ConversionError{Value: rv.Interface(), Target: target, Err: ErrNotConvertible}
}

// normalize strips named types down to their predeclared basic type so cast
// can switch on them.
func normalize(rv reflect.Value) any {
	if basic := basicType(rv.Kind()); basic != nil && rv.Type() != basic {
		return rv.Convert(basic).Interface()
	}

	return rv.Interface()
}

func castTo(value any, target reflect.Type, to KindEnum) (any, error) {
	switch to {
	case KindTime:
		return cast.ToTimeE(value)
	case KindDuration:
		return cast.ToDurationE(value)
	case KindUUID:
		s, err := toString(value)
		if err != nil {
			return nil, err
		}

		return uuid.Parse(s)
	}

	switch target.Kind() {
	case reflect.Int:
		return cast.ToIntE(value)
	case reflect.Int8:
		return cast.ToInt8E(value)
	case reflect.Int16:
		return cast.ToInt16E(value)
	case reflect.Int32:
		return cast.ToInt32E(value)
	case reflect.Int64:
		return cast.ToInt64E(value)
	case reflect.Uint:
		return cast.ToUintE(value)
	case reflect.Uint8:
		return cast.ToUint8E(value)
	case reflect.Uint16:
		return cast.ToUint16E(value)
	case reflect.Uint32:
		return cast.ToUint32E(value)
	case reflect.Uint64:
		return cast.ToUint64E(value)
	case reflect.Float32:
		return cast.ToFloat32E(value)
	case reflect.Float64:
		return cast.ToFloat64E(value)
	case reflect.Bool:
		return cast.ToBoolE(value)
	case reflect.String:
		return toString(value)
	}

	return nil, ErrNotConvertible
}

// toString renders floats with a fractional part so that 6.0 reads back as
// a float, times as RFC3339Nano and everything else through cast.
func toString(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return formatFloat(v, 64), nil
	case float32:
		return formatFloat(float64(v), 32), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}

	return cast.ToStringE(value)
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if strings.ContainsAny(s, ".NI") {
		return s
	}

	return s + ".0"
}
