package models

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// DetailRecord is the participation contract for concrete detail rows. The
// engine never looks at their business fields.
type DetailRecord interface {
	GetId() int
	GetDescriptorKey() string
}

// DetailBuildRequest carries everything a constructor needs to stamp a new
// concrete record. SequenceNo comes from the per-category allocator and
// LedgerEntryId from the master ledger row created in the same transaction.
type DetailBuildRequest struct {
	BusinessId    string
	OwnerId       int
	LedgerEntryId int
	SequenceNo    int64
	CreatedBy     string
}

// DetailDescriptor is the capability bundle for one detail kind within one
// owner category. Build inserts the concrete row on the given tx; FindByOwner
// and DeleteByOwner scope the concrete table by owner id so callers never
// enumerate concrete tables themselves.
type DetailDescriptor struct {
	Key           string
	Category      OwnerCategory
	Build         func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error)
	FindByOwner   func(ctx context.Context, businessId string, ownerId int) (DetailRecord, error)
	DeleteByOwner func(tx *gorm.DB, businessId string, ownerId int) error
}

var (
	detailRegistryMu sync.RWMutex
	detailRegistry   = map[OwnerCategory]map[string]DetailDescriptor{}
)

// RegisterDetailDescriptor adds one detail kind to the registry. Keys are
// unique within an owner category. Called only from RegisterBuiltinDetailKinds
// at process start; never at request time.
func RegisterDetailDescriptor(d DetailDescriptor) error {
	if d.Key == "" || d.Build == nil {
		return fmt.Errorf("detail descriptor %q is incomplete", d.Key)
	}
	if _, err := ParseOwnerCategory(string(d.Category)); err != nil {
		return fmt.Errorf("detail descriptor %q: %w", d.Key, err)
	}

	detailRegistryMu.Lock()
	defer detailRegistryMu.Unlock()

	byKey, ok := detailRegistry[d.Category]
	if !ok {
		byKey = map[string]DetailDescriptor{}
		detailRegistry[d.Category] = byKey
	}
	if _, exists := byKey[d.Key]; exists {
		return fmt.Errorf("detail descriptor %q already registered for category %s", d.Key, d.Category)
	}
	byKey[d.Key] = d
	return nil
}

// ResolveDetailDescriptor looks up a constructor by string key. A missing key
// is a normal outcome (stale configuration naming a retired kind); callers
// skip it and log a warning rather than fail.
func ResolveDetailDescriptor(category OwnerCategory, key string) (DetailDescriptor, bool) {
	detailRegistryMu.RLock()
	defer detailRegistryMu.RUnlock()

	byKey, ok := detailRegistry[category]
	if !ok {
		return DetailDescriptor{}, false
	}
	d, ok := byKey[key]
	return d, ok
}

// RegisteredDetailKeys returns the keys known for a category, for seeding and
// admin screens.
func RegisteredDetailKeys(category OwnerCategory) []string {
	detailRegistryMu.RLock()
	defer detailRegistryMu.RUnlock()

	keys := make([]string, 0, len(detailRegistry[category]))
	for key := range detailRegistry[category] {
		keys = append(keys, key)
	}
	return keys
}

var registerBuiltinOnce sync.Once

// RegisterBuiltinDetailKinds populates the registry with every detail kind this
// build knows about. Call once from main() (and from test setup) before any
// owner is created.
func RegisterBuiltinDetailKinds() {
	registerBuiltinOnce.Do(func() {
		for _, d := range []DetailDescriptor{
			purchaseInfoDescriptor(),
			vehicleRegistrationDescriptor(),
			safetyChecklistDescriptor(),
			warrantyReceiptDescriptor(),
			meterLogDescriptor(),
			serviceScheduleDescriptor(),
			tripTicketDescriptor(),
		} {
			if err := RegisterDetailDescriptor(d); err != nil {
				panic(err)
			}
		}
	})
}
