package fetcher

import (
	"reflect"
	"sync"
)

// RefreshObserver is told that fresh articles are available.
type RefreshObserver interface {
	Refreshed(userTriggered bool)
}

// ObserverFunc adapts a function to RefreshObserver. Funcs are not comparable,
// so Detach never matches one; register a pointer type when detaching is needed.
type ObserverFunc func(userTriggered bool)

func (f ObserverFunc) Refreshed(userTriggered bool) { f(userTriggered) }

// Observers is a registry shared by every pipeline built around it.
// Observers stay registered until they detach themselves.
type Observers struct {
	mu        sync.Mutex
	observers []RefreshObserver
}

func NewObservers() *Observers {
	return &Observers{}
}

func (o *Observers) Attach(observer RefreshObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.observers = append(o.observers, observer)
}

// Detach removes the first registration of observer. It is a no-op for
// observers that were never attached.
func (o *Observers) Detach(observer RefreshObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, registered := range o.observers {
		// Interface equality panics on uncomparable dynamic types such as ObserverFunc.
		if !reflect.TypeOf(registered).Comparable() {
			continue
		}
		if registered == observer {
			o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
			return
		}
	}
}

func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.observers)
}

// Notify calls every observer once, outside the lock, so observers may
// detach themselves from inside Refreshed.
func (o *Observers) Notify(userTriggered bool) {
	o.mu.Lock()
	snapshot := make([]RefreshObserver, len(o.observers))
	copy(snapshot, o.observers)
	o.mu.Unlock()

	for _, observer := range snapshot {
		observer.Refreshed(userTriggered)
	}
}
