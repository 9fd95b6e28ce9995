package shippingoptions

import (
	"context"
	"time"

	"github.com/angelmondragon/checkout-shipping/internal/packages"
)

type resolverObserver interface {
	ObserveResolver(duration time.Duration, err error)
}

type instrumented struct {
	next     Resolver
	observer resolverObserver
}

// Instrument wraps a resolver so every call is timed by observer.
func Instrument(next Resolver, observer resolverObserver) Resolver {
	if observer == nil {
		return next
	}
	return &instrumented{next: next, observer: observer}
}

func (i *instrumented) Resolve(ctx context.Context, requests []packages.Request) (*Resolution, error) {
	start := time.Now()
	res, err := i.next.Resolve(ctx, requests)
	i.observer.ObserveResolver(time.Since(start), err)
	return res, err
}
