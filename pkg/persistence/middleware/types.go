// Package middleware decorates a ports.ConversationStore with behavior
// applied at rest: encryption of whole snapshots and masking of sensitive
// values inside stored trees.
package middleware

import "github.com/aretw0/genui/pkg/ports"

// Middleware allows wrapping a ConversationStore to add behavior.
type Middleware func(ports.ConversationStore) ports.ConversationStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.ConversationStore, mws ...Middleware) ports.ConversationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
