package projection

import (
	"fmt"
	"iter"
	"reflect"

	"projector/utils"
)

// List is an ordered collection view. Elements are projected onto T when
// read; values handed to writes and membership queries are unwrapped and
// coerced to the element type of the backing slice first.
//
// Over a slice of values, a projected element addresses its slot in the
// backing array rather than the element: after Insert or a removal it reads
// whatever element moved into the slot, and after an append that reallocates
// the slice it keeps addressing the old array. Slices of pointers do not
// have this limitation.
type List[T any] struct {
	engine *Engine
	items  reflect.Value // settable slice
}

func (l *List[T]) attach(e *Engine, v reflect.Value) error {
	v = concrete(v)
	if v.IsValid() && v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Slice {
		v = v.Elem()
	}

	if !v.IsValid() || v.Kind() != reflect.Slice {
		return fmt.Errorf("%w: %s", ErrNotCollection, typeOf(v))
	}

	if !v.CanSet() {
		local := reflect.New(v.Type()).Elem()
		local.Set(v)
		v = local
	}

	l.engine, l.items = e, v

	return nil
}

func (l *List[T]) elemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (l *List[T]) members() []reflect.Value {
	out := make([]reflect.Value, 0, l.Len())
	for i := range l.Len() {
		out = append(out, l.items.Index(i))
	}

	return out
}

// Raw returns the backing slice.
func (l *List[T]) Raw() any {
	return l.items.Interface()
}

func (l *List[T]) Len() int {
	return l.items.Len()
}

func (l *List[T]) IsEmpty() bool {
	return l.items.Len() == 0
}

// Get returns the projected element at i.
func (l *List[T]) Get(i int) (T, error) {
	if err := l.check(i, l.Len()-1); err != nil {
		var zero T
		return zero, err
	}

	return l.project(l.items.Index(i))
}

// Set replaces the element at i.
func (l *List[T]) Set(i int, v any) error {
	if err := l.check(i, l.Len()-1); err != nil {
		return err
	}

	el, err := l.element(v)
	if err != nil {
		return err
	}

	l.items.Index(i).Set(el)

	return nil
}

// Add appends v.
func (l *List[T]) Add(v any) error {
	return l.AddAll(v)
}

// AddAll appends every value, or none when one of them cannot be converted.
func (l *List[T]) AddAll(vs ...any) error {
	return l.InsertAll(l.Len(), vs...)
}

// Insert places v at i, shifting later elements up.
func (l *List[T]) Insert(i int, v any) error {
	return l.InsertAll(i, v)
}

// InsertAll places every value at i in order, shifting later elements up.
func (l *List[T]) InsertAll(i int, vs ...any) error {
	n := l.Len()
	if err := l.check(i, n); err != nil {
		return err
	}

	els := make([]reflect.Value, 0, len(vs))
	for _, v := range vs {
		el, err := l.element(v)
		if err != nil {
			return err
		}

		els = append(els, el)
	}

	k := len(els)
	l.items.Set(reflect.AppendSlice(l.items, reflect.MakeSlice(l.items.Type(), k, k)))
	reflect.Copy(l.items.Slice(i+k, n+k), l.items.Slice(i, n))

	for j, el := range els {
		l.items.Index(i + j).Set(el)
	}

	return nil
}

// RemoveAt removes the element at i and returns its projection.
func (l *List[T]) RemoveAt(i int) (T, error) {
	if err := l.check(i, l.Len()-1); err != nil {
		var zero T
		return zero, err
	}

	return l.project(l.removeAt(i))
}

// Remove removes the first element equal to v.
func (l *List[T]) Remove(v any) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}

	l.removeAt(i)

	return true
}

func (l *List[T]) Contains(v any) bool {
	return l.IndexOf(v) >= 0
}

// IndexOf returns the index of the first element equal to v, or -1.
func (l *List[T]) IndexOf(v any) int {
	target, err := l.element(v)
	if err != nil {
		return -1
	}

	for i := range l.Len() {
		if equal(l.items.Index(i), target) {
			return i
		}
	}

	return -1
}

// LastIndexOf returns the index of the last element equal to v, or -1.
func (l *List[T]) LastIndexOf(v any) int {
	target, err := l.element(v)
	if err != nil {
		return -1
	}

	for i := l.Len() - 1; i >= 0; i-- {
		if equal(l.items.Index(i), target) {
			return i
		}
	}

	return -1
}

// Clear removes every element.
func (l *List[T]) Clear() {
	l.items.Clear()
	l.items.Set(l.items.Slice(0, 0))
}

// SubList returns a view of the elements in [from, to). The view shares the
// backing array; growing it never overwrites elements past to.
func (l *List[T]) SubList(from, to int) (*List[T], error) {
	if !utils.IsInRange(0, from, to) || !utils.IsInRange(from, to, l.Len()) {
		return nil, fmt.Errorf("%w: [%d:%d] of %d", ErrIndexOutOfRange, from, to, l.Len())
	}

	sub := reflect.New(l.items.Type()).Elem()
	sub.Set(l.items.Slice3(from, to, to))

	return &List[T]{engine: l.engine, items: sub}, nil
}

// Values returns every element projected.
func (l *List[T]) Values() ([]T, error) {
	out := make([]T, 0, l.Len())
	for v, err := range l.All() {
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

// All yields the projected elements in order.
func (l *List[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := 0; i < l.Len(); i++ {
			if !yield(l.project(l.items.Index(i))) {
				return
			}
		}
	}
}

// Iterator returns a bidirectional iterator positioned before the first
// element.
func (l *List[T]) Iterator() *ListIterator[T] {
	return &ListIterator[T]{list: l, last: -1}
}

func (l *List[T]) RetainAll(...any) error {
	return fmt.Errorf("%w: RetainAll", ErrUnsupportedOperation)
}

func (l *List[T]) RemoveAll(...any) error {
	return fmt.Errorf("%w: RemoveAll", ErrUnsupportedOperation)
}

func (l *List[T]) ContainsAll(...any) (bool, error) {
	return false, fmt.Errorf("%w: ContainsAll", ErrUnsupportedOperation)
}

func (l *List[T]) removeAt(i int) reflect.Value {
	n := l.Len()

	removed := reflect.New(l.items.Type().Elem()).Elem()
	removed.Set(l.items.Index(i))

	reflect.Copy(l.items.Slice(i, n), l.items.Slice(i+1, n))
	l.items.Index(n - 1).SetZero()
	l.items.Set(l.items.Slice(0, n-1))

	return removed
}

func (l *List[T]) check(i, last int) error {
	if !utils.IsInRange(0, i, last) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, l.Len())
	}

	return nil
}

func (l *List[T]) project(v reflect.Value) (T, error) {
	return project[T](l.engine, v)
}

func (l *List[T]) element(v any) (reflect.Value, error) {
	return l.engine.value(v, l.items.Type().Elem())
}

// ListIterator walks a List in both directions. Remove and Set act on the
// element returned by the last Next or Previous.
type ListIterator[T any] struct {
	list   *List[T]
	cursor int
	last   int
}

func (it *ListIterator[T]) HasNext() bool {
	return it.cursor < it.list.Len()
}

func (it *ListIterator[T]) Next() (T, error) {
	i := it.cursor

	v, err := it.list.Get(i)
	if err != nil {
		return v, err
	}

	it.cursor, it.last = i+1, i

	return v, nil
}

func (it *ListIterator[T]) HasPrevious() bool {
	return it.cursor > 0
}

func (it *ListIterator[T]) Previous() (T, error) {
	i := it.cursor - 1

	v, err := it.list.Get(i)
	if err != nil {
		return v, err
	}

	it.cursor, it.last = i, i

	return v, nil
}

func (it *ListIterator[T]) NextIndex() int {
	return it.cursor
}

func (it *ListIterator[T]) PreviousIndex() int {
	return it.cursor - 1
}

func (it *ListIterator[T]) Remove() error {
	if it.last < 0 {
		return ErrIteratorState
	}

	it.list.removeAt(it.last)

	if it.last < it.cursor {
		it.cursor--
	}

	it.last = -1

	return nil
}

func (it *ListIterator[T]) Set(v any) error {
	if it.last < 0 {
		return ErrIteratorState
	}

	return it.list.Set(it.last, v)
}

// Add inserts v before the element Next would return.
func (it *ListIterator[T]) Add(v any) error {
	if err := it.list.Insert(it.cursor, v); err != nil {
		return err
	}

	it.cursor++
	it.last = -1

	return nil
}

func project[T any](e *Engine, v reflect.Value) (T, error) {
	var zero T

	out, err := e.adapt(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}

	t, _ := out.Interface().(T)

	return t, nil
}

// equal compares elements by value; pointers compare by identity.
func equal(a, b reflect.Value) bool {
	if a.Type() == b.Type() && a.Type().Comparable() && a.Kind() != reflect.Interface {
		return a.Equal(b)
	}

	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func typeOf(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}

	return v.Type().String()
}
