package projection

import (
	"reflect"
	"runtime"
	"sync"
	"weak"
)

// bound indexes every bound contract instance by address so that Unwrap can
// reach the adapter of contracts without an embedded Proxy. Entries hold no
// strong references and are dropped once the instance is collected.
var bound bindings

type bindings struct {
	entries sync.Map // uintptr -> *binding
}

type binding struct {
	instance weak.Pointer[byte]
	typ      reflect.Type
	adapter  weak.Pointer[Adapter]
}

func (b *bindings) add(ptr reflect.Value, a *Adapter) {
	if ptr.Type().Elem().Size() == 0 {
		return
	}

	addr := ptr.Pointer()
	entry := &binding{
		instance: weak.Make(anchor(ptr)),
		typ:      ptr.Type(),
		adapter:  weak.Make(a),
	}

	b.entries.Store(addr, entry)

	// a newer binding at a reused address must survive the older cleanup
	runtime.AddCleanup(anchor(ptr), func(addr uintptr) {
		b.entries.CompareAndDelete(addr, entry)
	}, addr)
}

// lookup returns the adapter bound into the instance ptr points at.
func (b *bindings) lookup(ptr reflect.Value) (*Adapter, bool) {
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Type().Elem().Kind() != reflect.Struct {
		return nil, false
	}

	v, ok := b.entries.Load(ptr.Pointer())
	if !ok {
		return nil, false
	}

	entry := v.(*binding)
	if entry.typ != ptr.Type() || entry.instance != weak.Make(anchor(ptr)) {
		return nil, false
	}

	a := entry.adapter.Value()

	return a, a != nil
}

// anchor is the instance address typed for the weak and cleanup APIs, which
// track the allocation rather than the pointee type.
func anchor(ptr reflect.Value) *byte {
	return (*byte)(ptr.UnsafePointer())
}
