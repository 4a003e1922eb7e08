package projections

import (
	domain "curapharm/internal/domain/medicine"
)

// InventoryAnalytics holds the three counters shown above the medicine table.
type InventoryAnalytics struct {
	Total    int `json:"total"`
	LowStock int `json:"lowStock"`
	Expired  int `json:"expired"`
}

// MedicineLister is the read surface the projection needs.
type MedicineLister interface {
	All() []domain.Medicine
}

// GetInventoryAnalyticsDeps holds dependencies for the analytics projection.
type GetInventoryAnalyticsDeps struct {
	MedicineStore MedicineLister
}

// QueryGetInventoryAnalytics recomputes the counters from the current
// collection: total records, quantities below the low-stock threshold, and
// expiry dates before today.
// PRE: today is a fixed-width ISO date
func QueryGetInventoryAnalytics(deps GetInventoryAnalyticsDeps, today string) InventoryAnalytics {
	meds := deps.MedicineStore.All()
	a := InventoryAnalytics{Total: len(meds)}
	for _, m := range meds {
		if m.LowStock() {
			a.LowStock++
		}
		if m.Expired(today) {
			a.Expired++
		}
	}
	return a
}
