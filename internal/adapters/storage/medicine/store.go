package medicine

import (
	"curapharm/internal/adapters/storage/records"
	domain "curapharm/internal/domain/medicine"
)

// StorageKey is the local storage key the medicine collection persists under.
const StorageKey = "medicines"

// Store is the medicine record store.
type Store = records.Store[domain.Medicine]

// NewStore creates the medicine collection: seeded with the two default
// records, unique on code.
func NewStore(kv records.KV) *Store {
	return records.New(kv, StorageKey, domain.Seeds(), domain.Conflicts)
}
