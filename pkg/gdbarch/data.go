package gdbarch

import "sync/atomic"

var dataSlots int32

// Data is a slot attaching a value of type *T to every architecture.
// Slots are created once, usually in package initialization, and their
// values are computed lazily and cached for the life of the architecture.
type Data[T any] struct {
	index int
	pre   func() *T
	post  func(*Gdbarch) *T
}

func nextDataIndex() int {
	return int(atomic.AddInt32(&dataSlots, 1) - 1)
}

// NewPreInitData returns a slot whose value is created by init without
// looking at the architecture. Pre-init values are available while the
// architecture is being built.
func NewPreInitData[T any](init func() *T) *Data[T] {
	return &Data[T]{index: nextDataIndex(), pre: init}
}

// NewPostInitData returns a slot whose value is computed by init from the
// initialized architecture the first time it is requested.
func NewPostInitData[T any](init func(*Gdbarch) *T) *Data[T] {
	return &Data[T]{index: nextDataIndex(), post: init}
}

func (d *Data[T]) grow(a *Gdbarch) {
	if d.index < len(a.data) {
		return
	}
	data := make([]interface{}, d.index+1)
	copy(data, a.data)
	a.data = data
	init := make([]bool, d.index+1)
	copy(init, a.dataInit)
	a.dataInit = init
}

func (d *Data[T]) cached(a *Gdbarch) *T {
	if d.index >= len(a.data) {
		return nil
	}
	v, _ := a.data[d.index].(*T)
	return v
}

func (d *Data[T]) store(a *Gdbarch, v *T) {
	if v == nil {
		return
	}
	d.grow(a)
	a.data[d.index] = v
}

// Get returns the value of d for a. For post-init slots it returns nil
// while a has not been initialized yet, callers running during the
// construction of a must handle it. Re-entering the initializer of d for
// the same architecture panics.
func (d *Data[T]) Get(a *Gdbarch) *T {
	if v := d.cached(a); v != nil {
		return v
	}
	switch {
	case d.pre != nil:
		v := d.pre()
		d.store(a, v)
		return v
	case d.post != nil && a.initialized:
		d.grow(a)
		if a.dataInit[d.index] {
			InternalError("gdbarch: recursive initialization of data slot %d for %s", d.index, a)
		}
		a.dataInit[d.index] = true
		defer func() { a.dataInit[d.index] = false }()
		v := d.post(a)
		d.store(a, v)
		return v
	}
	return nil
}

// Set sets the value of d for a. It can only be used while a is being
// built.
func (d *Data[T]) Set(a *Gdbarch, v *T) {
	a.mutable("data")
	if v == nil {
		InternalError("gdbarch: nil value stored in data slot %d", d.index)
	}
	d.store(a, v)
}
