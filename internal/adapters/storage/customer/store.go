package customer

import (
	"curapharm/internal/adapters/storage/records"
	domain "curapharm/internal/domain/customer"
)

// StorageKey is the local storage key the customer collection persists under.
const StorageKey = "customers"

// Store is the customer record store.
type Store = records.Store[domain.Customer]

// NewStore creates the customer collection: seeded with the two default
// records, unique on phone and email.
func NewStore(kv records.KV) *Store {
	return records.New(kv, StorageKey, domain.Seeds(), domain.Conflicts)
}
