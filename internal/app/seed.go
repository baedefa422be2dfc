package app

import (
	"fmt"

	"leasebill/internal/core/id"
	"leasebill/internal/infrastructure/storage/memory"
)

// SeededPair is a unit and a tenant created for local runs.
type SeededPair struct {
	UnitID   id.ID
	Label    string
	TenantID id.ID
}

// SeedMemory adds n available units and n tenants to store.
func SeedMemory(store *memory.Store, n int) []SeededPair {
	out := make([]SeededPair, 0, n)
	for i := 1; i <= n; i++ {
		label := fmt.Sprintf("APT-%03d", i)
		out = append(out, SeededPair{
			UnitID:   store.AddUnit(label),
			Label:    label,
			TenantID: store.AddTenant(fmt.Sprintf("Inquilino %d", i)),
		})
	}
	return out
}
