package bridge

import (
	"context"
	"errors"
	"sync"
)

// ProviderBinding is the name an injected wallet is exposed under.
const ProviderBinding = "ethereum"

// Provider is what a page sees of an injected wallet.
type Provider interface {
	Request(ctx context.Context, method string, params []any) (any, error)
	Send(ctx context.Context, args ...any) (any, error)
	SendAsync(ctx context.Context, req Request, cb Callback)
	Subscribe(event string, fn Listener) (unsubscribe func())
	IsMetaMask() bool
}

var _ Provider = (*Adapter)(nil)

// Host is a page context providers can be bound into.
type Host interface {
	Lookup(name string) (Provider, bool)
	// BindIfAbsent calls build and binds its result under name, unless a
	// provider is already bound there. It returns the bound provider and
	// whether build ran.
	BindIfAbsent(name string, build func() (Provider, error)) (Provider, bool, error)
}

// PageContext is an in-process Host, one per page.
type PageContext struct {
	mu       sync.Mutex
	bindings map[string]Provider
}

func NewPageContext() *PageContext {
	return &PageContext{bindings: make(map[string]Provider)}
}

func (p *PageContext) Lookup(name string) (Provider, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prov, ok := p.bindings[name]
	return prov, ok
}

func (p *PageContext) BindIfAbsent(name string, build func() (Provider, error)) (Provider, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prov, ok := p.bindings[name]; ok {
		return prov, false, nil
	}
	prov, err := build()
	if err != nil {
		return nil, false, err
	}
	if prov == nil {
		return nil, false, errors.New("provider builder returned nil")
	}
	p.bindings[name] = prov
	return prov, true, nil
}

// Install makes sure host exposes a wallet provider. When one is bound
// already build is not called and the existing provider is returned with
// installed set to false.
func Install(host Host, build func() (Provider, error)) (prov Provider, installed bool, err error) {
	return host.BindIfAbsent(ProviderBinding, build)
}
