// Package observer implements the notifications sent when architectures,
// threads and registers change.
package observer

import (
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/target"
)

// Token identifies an attached observer.
type Token uint64

type observer[T any] struct {
	token Token
	name  string
	fn    func(T)
}

// Observable is a list of functions called, in attach order, every time
// Notify is called. It is not safe for concurrent use.
type Observable[T any] struct {
	name      string
	observers []observer[T]
	next      Token
}

// NewObservable returns an observable called name, the name is only used
// for logging.
func NewObservable[T any](name string) *Observable[T] {
	return &Observable[T]{name: name}
}

// Attach adds fn to the list of observers.
func (o *Observable[T]) Attach(fn func(T), name string) Token {
	o.next++
	o.observers = append(o.observers, observer[T]{token: o.next, name: name, fn: fn})
	return o.next
}

// Detach removes the observer identified by tok.
func (o *Observable[T]) Detach(tok Token) {
	for i := range o.observers {
		if o.observers[i].token == tok {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// Notify calls every observer with v. Observers attached or detached
// during the notification take effect on the next one.
func (o *Observable[T]) Notify(v T) {
	observers := make([]observer[T], len(o.observers))
	copy(observers, o.observers)
	for _, obs := range observers {
		obs.fn(v)
	}
}

// Len returns the number of attached observers.
func (o *Observable[T]) Len() int {
	return len(o.observers)
}

// ArchitectureChanged is sent when the architecture of the inspected
// thread changes.
type ArchitectureChanged struct {
	Arch *gdbarch.Gdbarch
}

// RegistersChanged is sent when the registers of the threads matching Ptid
// of Target are invalidated. A nil Target means every target.
type RegistersChanged struct {
	Target target.Target
	Ptid   target.Ptid
}

// ThreadPtidChanged is sent when a thread changes identity.
type ThreadPtidChanged struct {
	Target target.Target
	Old    target.Ptid
	New    target.Ptid
}

// TargetChanged is sent when the debugger switches target.
type TargetChanged struct {
	Target target.Target
}

// Events groups the notifications of a debugging session.
type Events struct {
	ArchitectureChanged   *Observable[ArchitectureChanged]
	RegistersChanged      *Observable[RegistersChanged]
	ThreadPtidChanged     *Observable[ThreadPtidChanged]
	FrameCacheInvalidated *Observable[struct{}]
	TargetChanged         *Observable[TargetChanged]
}

// NewEvents returns an Events with no observers.
func NewEvents() *Events {
	return &Events{
		ArchitectureChanged:   NewObservable[ArchitectureChanged]("architecture_changed"),
		RegistersChanged:      NewObservable[RegistersChanged]("registers_changed"),
		ThreadPtidChanged:     NewObservable[ThreadPtidChanged]("thread_ptid_changed"),
		FrameCacheInvalidated: NewObservable[struct{}]("frame_cache_invalidated"),
		TargetChanged:         NewObservable[TargetChanged]("target_changed"),
	}
}
