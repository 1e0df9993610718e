package middleware

import "github.com/aretw0/slidedeck/pkg/ports"

// Middleware allows wrapping a PresentationStore to add behavior.
type Middleware func(ports.PresentationStore) ports.PresentationStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.PresentationStore, mws ...Middleware) ports.PresentationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
