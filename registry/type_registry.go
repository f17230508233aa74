/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/proxystore/proxy"
)

var (
	handlers = make(map[proxy.ModelType]proxy.Handler)
	mu       sync.RWMutex
)

// Register adds the handler of a generated model type.
// If a handler is already registered for the type, it panics to prevent accidental overrides.
func Register(h proxy.Handler) {
	t := h.ModelType()
	if t == "" {
		panic("type registry: handler has an empty model type")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := handlers[t]; exists {
		panic(fmt.Sprintf("type registry: model type %q already registered", t))
	}
	handlers[t] = h
}

// Types returns the registered model types in sorted order.
func Types() []proxy.ModelType {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]proxy.ModelType, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Handlers returns the registered handlers ordered by model type.
func Handlers() []proxy.Handler {
	types := Types()

	mu.RLock()
	defer mu.RUnlock()
	hs := make([]proxy.Handler, 0, len(types))
	for _, t := range types {
		if h, ok := handlers[t]; ok {
			hs = append(hs, h)
		}
	}
	return hs
}
