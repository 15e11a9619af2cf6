package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OwnerRef is the shape the CRUD layer hands to the orchestrator after an
// owner row is durably identified: category, id and the resolved selectors.
// Dispatch selectors are derived transitively through the dispatched asset.
type OwnerRef struct {
	Category   OwnerCategory
	Id         int
	BusinessId string
	AssetType  string
	ModelId    *int
	CreatedBy  string
}

// ResolveOwnerRef rebuilds an OwnerRef for an already-persisted owner. Used by
// the explicit attach endpoint and the sweeper, which only hold (category, id).
func ResolveOwnerRef(ctx context.Context, category OwnerCategory, id int) (OwnerRef, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return OwnerRef{}, errors.New("business id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	switch category {
	case OwnerCategoryModel:
		model, err := utils.FetchModel[AssetModel](ctx, businessId, id)
		if err != nil {
			return OwnerRef{}, err
		}
		return OwnerRef{
			Category:   OwnerCategoryModel,
			Id:         model.ID,
			BusinessId: businessId,
			AssetType:  model.AssetType,
			CreatedBy:  userName,
		}, nil
	case OwnerCategoryAsset:
		asset, err := utils.FetchModel[Asset](ctx, businessId, id)
		if err != nil {
			return OwnerRef{}, err
		}
		model, err := utils.FetchModel[AssetModel](ctx, businessId, asset.ModelId)
		if err != nil {
			return OwnerRef{}, err
		}
		return OwnerRef{
			Category:   OwnerCategoryAsset,
			Id:         asset.ID,
			BusinessId: businessId,
			AssetType:  model.AssetType,
			ModelId:    &asset.ModelId,
			CreatedBy:  userName,
		}, nil
	case OwnerCategoryDispatch:
		dispatch, err := utils.FetchModel[Dispatch](ctx, businessId, id)
		if err != nil {
			return OwnerRef{}, err
		}
		asset, err := utils.FetchModel[Asset](ctx, businessId, dispatch.AssetId)
		if err != nil {
			return OwnerRef{}, err
		}
		model, err := utils.FetchModel[AssetModel](ctx, businessId, asset.ModelId)
		if err != nil {
			return OwnerRef{}, err
		}
		return OwnerRef{
			Category:   OwnerCategoryDispatch,
			Id:         dispatch.ID,
			BusinessId: businessId,
			AssetType:  model.AssetType,
			ModelId:    &asset.ModelId,
			CreatedBy:  userName,
		}, nil
	}
	return OwnerRef{}, errors.New("invalid owner category")
}

// AttachDetails materializes every configured-but-missing detail record for
// one owner, inside the caller's transaction. Nothing here commits; the
// caller's transaction boundary is the only one. Re-invoking on a fully
// attached owner is a no-op, which is what makes retroactive attach after a
// configuration change safe.
//
// A failure on one descriptor key is logged and does not stop the siblings or
// fail the owner's creation, unless STRICT_ATTACH_ALL_OR_NOTHING is set.
// Sequence allocation failure is always fatal to the call.
func AttachDetails(tx *gorm.DB, logger *logrus.Logger, ref OwnerRef) ([]DetailRecord, error) {

	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	keys, err := AttachmentRuleKeysFor(ctx, ref.BusinessId, ref.Category, ref.AssetType, ref.ModelId)
	if err != nil {
		return nil, err
	}

	var created []DetailRecord
	for i, key := range keys {
		// savepoint per key: a failed key must not leave a half-written
		// ledger row behind while the siblings commit
		savepoint := fmt.Sprintf("attach_detail_%d", i)
		tx.SavePoint(savepoint)
		record, err := attachOne(tx, ref, key)
		if err != nil {
			tx.RollbackTo(savepoint)
			if errors.Is(err, ErrSequenceAllocation) {
				return created, err
			}
			if config.StrictAttachAllOrNothing() {
				return created, fmt.Errorf("attach %q: %w", key, err)
			}
			config.LogError(logger, "models", "AttachDetails",
				fmt.Sprintf("ownerCategory=%s ownerId=%d correlationId=%s", ref.Category, ref.Id, correlationId), key, err)
			continue
		}
		if record != nil {
			created = append(created, record)
		}
	}
	return created, nil
}

// attachOne handles a single descriptor key: skip if already recorded, skip
// with a warning if the key has no registered constructor, otherwise record
// the ledger row, allocate the sequence value, build the concrete record and
// reconcile the ledger with its id. Returns (nil, nil) on a skip.
func attachOne(tx *gorm.DB, ref OwnerRef, key string) (DetailRecord, error) {

	exists, err := HasDetailLedgerEntry(tx, ref.BusinessId, ref.Category, ref.Id, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	descriptor, found := ResolveDetailDescriptor(ref.Category, key)
	if !found {
		config.LogWarn(config.GetLogger(), "models", "attachOne",
			fmt.Sprintf("ownerCategory=%s ownerId=%d", ref.Category, ref.Id), key,
			"descriptor not found; skipping configured detail kind")
		return nil, nil
	}

	ledgerEntryId, err := RecordDetailLedgerEntry(tx, ref.BusinessId, ref.Category, ref.Id, key, ref.CreatedBy)
	if err != nil {
		if errors.Is(err, ErrDuplicateAttachment) {
			// a concurrent attach recorded this key first
			return nil, nil
		}
		return nil, err
	}

	sequenceNo, err := NextDetailSequence(tx, ref.BusinessId, ref.Category)
	if err != nil {
		return nil, err
	}

	record, err := descriptor.Build(tx, DetailBuildRequest{
		BusinessId:    ref.BusinessId,
		OwnerId:       ref.Id,
		LedgerEntryId: ledgerEntryId,
		SequenceNo:    sequenceNo,
		CreatedBy:     ref.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := ReconcileDetailLedgerEntry(tx, ledgerEntryId, record.GetId()); err != nil {
		return nil, err
	}
	return record, nil
}

// AttachDetailsForOwner is the explicit attach operation: resolve the owner's
// current selectors, then run the same idempotent materialization the create
// path runs, in its own transaction.
func AttachDetailsForOwner(ctx context.Context, category OwnerCategory, ownerId int) ([]DetailRecord, error) {

	ref, err := ResolveOwnerRef(ctx, category, ownerId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	logger := config.GetLogger()

	var created []DetailRecord
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = AttachDetails(tx, logger, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
