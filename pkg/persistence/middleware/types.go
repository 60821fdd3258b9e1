// Package middleware wraps session stores with extra behaviour applied to
// every snapshot on its way in or out.
package middleware

import "github.com/aretw0/reel/pkg/ports"

// Middleware wraps a StateStore.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies mws to store. The first middleware sees a snapshot first
// on Save.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
