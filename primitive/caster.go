package primitive

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"projector/utils"
)

var (
	ErrIsNotACaster         = errors.New("provided function is not a recognizable caster")
	ErrCasterIsNotAFunction = errors.New("provided caster is not a function")
	ErrDoublePointer        = errors.New("caster function does not support double pointers")
	ErrCasterRejected       = errors.New("caster rejected the value")
)

var errorType = reflect.TypeFor[error]()

// Caster describes a user supplied conversion function.
type Caster struct {
	Src, Dst     reflect.Type
	PackageAlias string
	Name         string
	HasBool      bool
	HasErr       bool

	fn reflect.Value
}

// ParseCaster inspects the provided function and returns a Caster struct if it is a valid caster function.
//
// Supports interfaces:
//   - func(src Type) (dst Type)
//   - func(src Type) (dst Type, bool)
//   - func(src Type) (dst Type, error)
//   - func(src Type) (dst Type, bool, error)
func ParseCaster(fn any) (Caster, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return Caster{}, ErrCasterIsNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.NumIn() != 1 || fnType.NumOut() == 0 || fnType.IsVariadic() {
		return Caster{}, ErrIsNotACaster
	}

	src := fnType.In(0)
	if src.Kind() == reflect.Pointer && src.Elem().Kind() == reflect.Pointer {
		return Caster{}, ErrDoublePointer
	}

	dst := fnType.Out(0)
	if dst.Kind() == reflect.Pointer && dst.Elem().Kind() == reflect.Pointer {
		return Caster{}, ErrDoublePointer
	}

	fnPC := runtime.FuncForPC(fnVal.Pointer())
	alias, name := utils.Unpack2(strings.SplitN(fnPC.Name(), ".", 2))

	caster := Caster{
		Src:          src,
		Dst:          dst,
		Name:         name,
		PackageAlias: utils.Second(path.Split(alias)),
		fn:           fnVal,
	}

	switch fnType.NumOut() {
	default:
		return Caster{}, ErrIsNotACaster

	case 1:
		return caster, nil

	case 2:
		last := fnType.Out(1)

		switch {
		default:
			return Caster{}, ErrIsNotACaster
		case last.Kind() == reflect.Bool:
			caster.HasBool = true
		case isError(last):
			caster.HasErr = true
		}

		return caster, nil

	case 3:
		tbool, terr := fnType.Out(1), fnType.Out(2)
		if tbool.Kind() != reflect.Bool || !isError(terr) {
			return Caster{}, ErrIsNotACaster
		}

		caster.HasBool = true
		caster.HasErr = true

		return caster, nil
	}
}

// String returns the qualified caster function name.
func (c Caster) String() string {
	return c.PackageAlias + "." + c.Name
}

// Call runs the caster on value. A false boolean result reports
// ErrCasterRejected.
func (c Caster) Call(value reflect.Value) (reflect.Value, error) {
	out := c.fn.Call([]reflect.Value{value})

	if c.HasErr {
		if last := out[len(out)-1]; !last.IsNil() {
			return reflect.Value{}, fmt.Errorf("%s: %w", c, last.Interface().(error))
		}
	}

	if c.HasBool && !out[1].Bool() {
		return reflect.Value{}, fmt.Errorf("%s: %w", c, ErrCasterRejected)
	}

	return out[0], nil
}

type casterPair struct{ src, dst reflect.Type }

// Casters is a Converter that consults registered caster functions by exact
// (source, destination) type pair and hands everything else to a fallback.
// It is safe for concurrent use.
type Casters struct {
	mu       sync.RWMutex
	casters  map[casterPair]Caster
	fallback Converter
}

// NewCasters creates a caster registry in front of fallback.
func NewCasters(fallback Converter) *Casters {
	return &Casters{casters: map[casterPair]Caster{}, fallback: fallback}
}

// Register parses and adds caster functions. A later caster for the same
// type pair replaces the earlier one.
func (c *Casters) Register(fns ...any) error {
	parsed := make([]Caster, 0, len(fns))
	for _, fn := range fns {
		caster, err := ParseCaster(fn)
		if err != nil {
			return fmt.Errorf("register %T: %w", fn, err)
		}

		parsed = append(parsed, caster)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, caster := range parsed {
		c.casters[casterPair{caster.Src, caster.Dst}] = caster
	}

	return nil
}

// Convert implements Converter.
func (c *Casters) Convert(value any, target reflect.Type) (any, error) {
	if value != nil {
		c.mu.RLock()
		caster, ok := c.casters[casterPair{reflect.TypeOf(value), target}]
		c.mu.RUnlock()

		if ok {
			out, err := caster.Call(reflect.ValueOf(value))
			if err != nil {
				return nil, &ConversionError{Value: value, Target: target, Err: err}
			}

			return out.Interface(), nil
		}
	}

	return c.fallback.Convert(value, target)
}

func isError(t reflect.Type) bool {
	return t != nil && t.Implements(errorType)
}
