package finpilot

import (
	"fmt"
	"sync"
)

// AccountRegistry tracks connected accounts and in-flight connect attempts.
// At most one pending connect per provider type is allowed, and a provider
// type that already connected cannot be submitted again.
type AccountRegistry struct {
	mu        sync.Mutex
	connected map[ProviderType]AccountRecord
	inFlight  map[ProviderType]bool
}

func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{
		connected: make(map[ProviderType]AccountRecord),
		inFlight:  make(map[ProviderType]bool),
	}
}

// Reserve claims a provider type for a new connect attempt. It returns a
// ValidationError when the type is unknown, already connected, or has a
// connect in flight.
func (r *AccountRegistry) Reserve(p ProviderType) error {
	switch p {
	case ProviderBank, ProviderUPI, ProviderCard:
	default:
		return &ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider type %q", p)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connected[p]; ok {
		return &ValidationError{Field: "provider", Reason: fmt.Sprintf("%s account already connected", p)}
	}
	if r.inFlight[p] {
		return &ValidationError{Field: "provider", Reason: fmt.Sprintf("a %s connection is already in progress", p)}
	}
	r.inFlight[p] = true
	return nil
}

// Commit finalizes a reserved connect. The record is trusted as supplied;
// no external verification happens here.
func (r *AccountRegistry) Commit(rec AccountRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, rec.Provider)
	r.connected[rec.Provider] = rec
}

// Release frees a reservation after a failed resolution so the user can
// resubmit.
func (r *AccountRegistry) Release(p ProviderType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, p)
}

// Connected returns the connected accounts in bank, upi, card order.
func (r *AccountRegistry) Connected() []AccountRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AccountRecord, 0, len(r.connected))
	for _, p := range []ProviderType{ProviderBank, ProviderUPI, ProviderCard} {
		if rec, ok := r.connected[p]; ok {
			out = append(out, rec)
		}
	}
	return out
}
