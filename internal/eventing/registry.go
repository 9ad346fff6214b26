package eventing

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Registry maps event type names back to their Go types so outbox
// payloads can be decoded into the events handlers expect. Every event
// the service emits is registered at startup, before the dispatcher
// runs; an envelope with an unregistered type cannot be delivered and
// ends up in the dead-letter table.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

// Register records the type of sample (value or pointer) under its
// type name, the same name EventType derives when publishing.
func (r *Registry) Register(sample any) {
	if r == nil || sample == nil {
		return
	}
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	r.types[t.String()] = t
	r.mu.Unlock()
}

// DecodePayload turns an envelope payload back into the registered
// event value.
func (r *Registry) DecodePayload(env Envelope) (any, error) {
	if r == nil {
		return nil, errors.New("eventing: nil registry")
	}
	r.mu.RLock()
	t, ok := r.types[env.EventType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("eventing: no event registered for type %q", env.EventType)
	}
	value := reflect.New(t)
	if err := json.Unmarshal(env.Payload, value.Interface()); err != nil {
		return nil, err
	}
	return value.Elem().Interface(), nil
}
