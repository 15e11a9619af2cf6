package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrDuplicateAttachment means a ledger row already exists for
// (business, category, owner, key). Callers treat it as success-no-op.
var ErrDuplicateAttachment = errors.New("detail attachment already recorded")

// DetailLedgerEntry is the master ledger: one row for every detail record ever
// created, independent of the record's concrete table. The unique index is the
// system's core uniqueness guarantee.
type DetailLedgerEntry struct {
	ID             int           `gorm:"primary_key" json:"id"`
	BusinessId     string        `gorm:"size:64;not null;index:uniq_detail_ledger,unique" json:"business_id"`
	OwnerCategory  OwnerCategory `gorm:"size:20;not null;index:uniq_detail_ledger,unique" json:"owner_category"`
	OwnerId        int           `gorm:"not null;index:uniq_detail_ledger,unique" json:"owner_id"`
	DescriptorKey  string        `gorm:"size:100;not null;index:uniq_detail_ledger,unique" json:"descriptor_key"`
	DetailRecordId *int          `gorm:"index" json:"detail_record_id"`
	CreatedBy      string        `gorm:"size:100" json:"created_by"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// DetailAttachment is the listFor projection used by generic detail screens.
type DetailAttachment struct {
	LedgerEntryId  int       `json:"ledger_entry_id"`
	DescriptorKey  string    `json:"descriptor_key"`
	DetailRecordId *int      `json:"detail_record_id"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// RecordDetailLedgerEntry inserts a ledger row with DetailRecordId unset, in
// the caller's transaction. If the surrounding transaction rolls back, the row
// disappears with it; there is no separate commit boundary. A duplicate-key
// insert (a concurrent attach won the race) returns ErrDuplicateAttachment.
func RecordDetailLedgerEntry(tx *gorm.DB, businessId string, category OwnerCategory, ownerId int, descriptorKey string, createdBy string) (int, error) {
	entry := DetailLedgerEntry{
		BusinessId:    businessId,
		OwnerCategory: category,
		OwnerId:       ownerId,
		DescriptorKey: descriptorKey,
		CreatedBy:     createdBy,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return 0, ErrDuplicateAttachment
		}
		return 0, err
	}
	return entry.ID, nil
}

// ReconcileDetailLedgerEntry sets the concrete record's id on the ledger row
// once the record has obtained its own identity.
func ReconcileDetailLedgerEntry(tx *gorm.DB, ledgerEntryId int, detailRecordId int) error {
	return tx.Model(&DetailLedgerEntry{}).
		Where("id = ?", ledgerEntryId).
		UpdateColumn("detail_record_id", detailRecordId).Error
}

// HasDetailLedgerEntry is the orchestrator's idempotency check. Run on the
// same tx that will insert; the unique index closes the remaining race.
func HasDetailLedgerEntry(tx *gorm.DB, businessId string, category OwnerCategory, ownerId int, descriptorKey string) (bool, error) {
	var count int64
	err := tx.Model(&DetailLedgerEntry{}).
		Where("business_id = ? AND owner_category = ? AND owner_id = ? AND descriptor_key = ?",
			businessId, category, ownerId, descriptorKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListDetailAttachments returns everything attached to one owner without
// enumerating concrete detail tables.
func ListDetailAttachments(ctx context.Context, category OwnerCategory, ownerId int) ([]*DetailAttachment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*DetailAttachment
	err := db.WithContext(ctx).Model(&DetailLedgerEntry{}).
		Select("id AS ledger_entry_id, descriptor_key, detail_record_id, created_by, created_at").
		Where("business_id = ? AND owner_category = ? AND owner_id = ?", businessId, category, ownerId).
		Order("descriptor_key").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteDetailAttachment removes one concrete detail record together with its
// ledger row. This is the only delete path, so the ledger never holds orphans.
func DeleteDetailAttachment(ctx context.Context, category OwnerCategory, ownerId int, descriptorKey string) error {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	descriptor, found := ResolveDetailDescriptor(category, descriptorKey)
	if !found {
		return utils.ErrorRecordNotFound
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if descriptor.DeleteByOwner != nil {
			if err := descriptor.DeleteByOwner(tx, businessId, ownerId); err != nil {
				return err
			}
		}
		result := tx.Where("business_id = ? AND owner_category = ? AND owner_id = ? AND descriptor_key = ?",
			businessId, category, ownerId, descriptorKey).
			Delete(&DetailLedgerEntry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorRecordNotFound
		}
		return nil
	})
}
