package fetcher

import "testing"

type selfDetaching struct {
	registry *Observers
	calls    int
}

func (o *selfDetaching) Refreshed(bool) {
	o.calls++
	o.registry.Detach(o)
}

func TestObservers_AttachDetach(t *testing.T) {
	t.Parallel()

	registry := NewObservers()
	a := &countingObserver{}
	b := &countingObserver{}

	registry.Attach(a)
	registry.Attach(b)
	registry.Notify(false)

	registry.Detach(a)
	registry.Detach(a)
	registry.Notify(true)

	if a.count() != 1 {
		t.Errorf("a calls = %d, want 1", a.count())
	}
	if b.count() != 2 {
		t.Errorf("b calls = %d, want 2", b.count())
	}
	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
}

func TestObservers_DetachDuringNotify(t *testing.T) {
	t.Parallel()

	registry := NewObservers()
	o := &selfDetaching{registry: registry}
	registry.Attach(o)

	registry.Notify(false)
	registry.Notify(false)

	if o.calls != 1 {
		t.Errorf("calls = %d, want 1", o.calls)
	}
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
}

func TestObserverFunc(t *testing.T) {
	t.Parallel()

	var got []bool
	registry := NewObservers()
	registry.Attach(ObserverFunc(func(userTriggered bool) { got = append(got, userTriggered) }))
	registry.Notify(true)

	if len(got) != 1 || !got[0] {
		t.Errorf("got = %v, want [true]", got)
	}
}

func TestObservers_DetachObserverFunc(t *testing.T) {
	t.Parallel()

	var calls int
	fn := ObserverFunc(func(bool) { calls++ })
	pointer := &countingObserver{}

	registry := NewObservers()
	registry.Attach(fn)
	registry.Attach(pointer)

	registry.Detach(fn)
	registry.Detach(ObserverFunc(func(bool) {}))
	registry.Detach(pointer)
	registry.Notify(false)

	if calls != 1 {
		t.Errorf("func observer calls = %d, want 1", calls)
	}
	if pointer.count() != 0 {
		t.Errorf("detached pointer observer calls = %d, want 0", pointer.count())
	}
	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
}
