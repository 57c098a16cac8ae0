package bridge

import (
	"fmt"
	"time"
)

// Observe registers fn to be told about every eth_sendTransaction attempt,
// failed ones included. The returned func removes fn.
func (a *Adapter) Observe(fn func(TxObservation)) (remove func()) {
	o := &observer{fn: fn}

	a.obsMu.Lock()
	a.observers = append(a.observers, o)
	a.obsMu.Unlock()

	return func() {
		a.obsMu.Lock()
		defer a.obsMu.Unlock()
		for i, cur := range a.observers {
			if cur == o {
				a.observers = append(a.observers[:i:i], a.observers[i+1:]...)
				return
			}
		}
	}
}

func (a *Adapter) notify(obs TxObservation) {
	obs.Mode = a.mode
	if obs.At.IsZero() {
		obs.At = time.Now().UTC()
	}

	a.obsMu.Lock()
	observers := a.observers
	a.obsMu.Unlock()

	for _, o := range observers {
		a.callObserver(o, obs)
	}
}

// callObserver keeps a panicking observer from failing the request.
func (a *Adapter) callObserver(o *observer, obs TxObservation) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("transaction observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	o.fn(obs)
}
