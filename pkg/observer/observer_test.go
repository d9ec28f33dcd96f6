package observer

import (
	"reflect"
	"testing"
)

func TestObservable(t *testing.T) {
	o := NewObservable[int]("test")
	var got []string
	t1 := o.Attach(func(v int) { got = append(got, "a") }, "a")
	o.Attach(func(v int) { got = append(got, "b") }, "b")

	o.Notify(1)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("wrong order %v", got)
	}

	o.Detach(t1)
	got = nil
	o.Notify(2)
	if !reflect.DeepEqual(got, []string{"b"}) || o.Len() != 1 {
		t.Errorf("detach failed %v", got)
	}
}

func TestObservableAttachDuringNotify(t *testing.T) {
	o := NewObservable[int]("test")
	calls := 0
	o.Attach(func(v int) {
		o.Attach(func(int) { calls++ }, "late")
	}, "attacher")
	o.Notify(1)
	if calls != 0 {
		t.Errorf("observer attached during notify was called")
	}
	o.Notify(2)
	if calls != 1 {
		t.Errorf("late observer called %d times", calls)
	}
}
