package projection

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"
)

// Set is an unordered collection view over a map used as a set. Map values
// are struct{} or bool; a bool entry counts as a member only when true.
type Set[T any] struct {
	engine *Engine
	items  reflect.Value // map
}

func (s *Set[T]) attach(e *Engine, v reflect.Value) error {
	v = concrete(v)
	if v.IsValid() && v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Map {
		v = v.Elem()
	}

	if !v.IsValid() || v.Kind() != reflect.Map || !isMember(v.Type().Elem()) {
		return fmt.Errorf("%w: %s", ErrNotCollection, typeOf(v))
	}

	if v.IsNil() {
		m := reflect.MakeMap(v.Type())
		if v.CanSet() {
			v.Set(m)
		} else {
			v = m
		}
	}

	s.engine, s.items = e, v

	return nil
}

func (s *Set[T]) elemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (s *Set[T]) members() []reflect.Value {
	return s.keys()
}

// Raw returns the backing map.
func (s *Set[T]) Raw() any {
	return s.items.Interface()
}

func (s *Set[T]) Len() int {
	return len(s.keys())
}

func (s *Set[T]) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Set[T]) Contains(v any) bool {
	k, err := s.key(v)
	if err != nil {
		return false
	}

	return s.has(k)
}

// Add inserts v and reports whether the set changed.
func (s *Set[T]) Add(v any) (bool, error) {
	k, err := s.key(v)
	if err != nil {
		return false, err
	}

	if s.has(k) {
		return false, nil
	}

	s.items.SetMapIndex(k, s.present())

	return true, nil
}

// AddAll inserts every value and reports whether the set changed.
func (s *Set[T]) AddAll(vs ...any) (bool, error) {
	keys := make([]reflect.Value, 0, len(vs))
	for _, v := range vs {
		k, err := s.key(v)
		if err != nil {
			return false, err
		}

		keys = append(keys, k)
	}

	changed := false
	for _, k := range keys {
		if !s.has(k) {
			s.items.SetMapIndex(k, s.present())
			changed = true
		}
	}

	return changed, nil
}

// Remove deletes v and reports whether it was a member.
func (s *Set[T]) Remove(v any) bool {
	k, err := s.key(v)
	if err != nil || !s.has(k) {
		return false
	}

	s.items.SetMapIndex(k, reflect.Value{})

	return true
}

func (s *Set[T]) Clear() {
	s.items.Clear()
}

// Values returns every member projected, ordered by their printed form.
func (s *Set[T]) Values() ([]T, error) {
	out := make([]T, 0, s.Len())
	for v, err := range s.All() {
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

// All yields the projected members in the order Values uses.
func (s *Set[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, k := range s.keys() {
			if !yield(project[T](s.engine, k)) {
				return
			}
		}
	}
}

// Iterator returns an iterator over a snapshot of the members.
func (s *Set[T]) Iterator() *SetIterator[T] {
	return &SetIterator[T]{set: s, keys: s.keys(), cursor: -1}
}

func (s *Set[T]) RetainAll(...any) error {
	return fmt.Errorf("%w: RetainAll", ErrUnsupportedOperation)
}

func (s *Set[T]) RemoveAll(...any) error {
	return fmt.Errorf("%w: RemoveAll", ErrUnsupportedOperation)
}

func (s *Set[T]) ContainsAll(...any) (bool, error) {
	return false, fmt.Errorf("%w: ContainsAll", ErrUnsupportedOperation)
}

func (s *Set[T]) keys() []reflect.Value {
	keys := make([]reflect.Value, 0, s.items.Len())

	iter := s.items.MapRange()
	for iter.Next() {
		if s.member(iter.Value()) {
			keys = append(keys, iter.Key())
		}
	}

	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})

	return keys
}

func (s *Set[T]) has(k reflect.Value) bool {
	v := s.items.MapIndex(k)
	return v.IsValid() && s.member(v)
}

func (s *Set[T]) member(v reflect.Value) bool {
	return v.Kind() != reflect.Bool || v.Bool()
}

func (s *Set[T]) present() reflect.Value {
	t := s.items.Type().Elem()
	if t.Kind() == reflect.Bool {
		return reflect.ValueOf(true).Convert(t)
	}

	return reflect.Zero(t)
}

func (s *Set[T]) key(v any) (reflect.Value, error) {
	return s.engine.value(v, s.items.Type().Key())
}

func isMember(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || (t.Kind() == reflect.Struct && t.NumField() == 0)
}

// SetIterator walks a snapshot of a Set's members:
//
//	for it.Next() {
//		v := it.Value()
//	}
//	if err := it.Err(); err != nil { ... }
type SetIterator[T any] struct {
	set     *Set[T]
	keys    []reflect.Value
	cursor  int
	current T
	removed bool
	err     error
}

// Next advances to the next member. It returns false when the members are
// exhausted or a projection fails.
func (it *SetIterator[T]) Next() bool {
	if it.err != nil || it.cursor+1 >= len(it.keys) {
		return false
	}

	it.cursor++
	it.removed = false
	it.current, it.err = project[T](it.set.engine, it.keys[it.cursor])

	return it.err == nil
}

func (it *SetIterator[T]) Value() T {
	return it.current
}

func (it *SetIterator[T]) Err() error {
	return it.err
}

// Remove deletes the current member from the set.
func (it *SetIterator[T]) Remove() error {
	if it.cursor < 0 || it.removed {
		return ErrIteratorState
	}

	it.set.items.SetMapIndex(it.keys[it.cursor], reflect.Value{})
	it.removed = true

	return nil
}
