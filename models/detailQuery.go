package models

import (
	"context"
	"errors"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

// findDetailByOwner backs the FindByOwner capability of every descriptor: each
// concrete table is scoped by owner through its own back-reference column.
func findDetailByOwner[T DetailRecord](ctx context.Context, businessId string, ownerColumn string, ownerId int) (DetailRecord, error) {
	db := config.GetDB()
	var record T
	err := db.WithContext(ctx).
		Where("business_id = ? AND "+ownerColumn+" = ?", businessId, ownerId).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// FindDetailRecord resolves one owner's concrete record for a descriptor key
// through the registry, so callers stay independent of concrete tables.
func FindDetailRecord(ctx context.Context, category OwnerCategory, ownerId int, descriptorKey string) (DetailRecord, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	descriptor, found := ResolveDetailDescriptor(category, descriptorKey)
	if !found || descriptor.FindByOwner == nil {
		return nil, utils.ErrorRecordNotFound
	}
	return descriptor.FindByOwner(ctx, businessId, ownerId)
}
