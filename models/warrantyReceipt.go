package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

const DetailKeyWarrantyReceipt = "warranty_receipt"

type WarrantyReceipt struct {
	ID            int        `gorm:"primary_key" json:"id"`
	BusinessId    string     `gorm:"size:64;not null;index" json:"business_id"`
	AssetId       int        `gorm:"index;not null" json:"asset_id"`
	LedgerEntryId int        `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64      `gorm:"not null" json:"sequence_no"`
	Provider      string     `gorm:"size:255" json:"provider"`
	ReceiptNumber string     `gorm:"size:100" json:"receipt_number"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	Terms         string     `gorm:"type:text" json:"terms"`
	CreatedBy     string     `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w WarrantyReceipt) GetId() int               { return w.ID }
func (w WarrantyReceipt) GetDescriptorKey() string { return DetailKeyWarrantyReceipt }

func warrantyReceiptDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyWarrantyReceipt,
		Category: OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := WarrantyReceipt{
				BusinessId:    req.BusinessId,
				AssetId:       req.OwnerId,
				LedgerEntryId: req.LedgerEntryId,
				SequenceNo:    req.SequenceNo,
				CreatedBy:     req.CreatedBy,
			}
			if err := tx.Create(&record).Error; err != nil {
				return nil, err
			}
			return record, nil
		},
		FindByOwner: func(ctx context.Context, businessId string, ownerId int) (DetailRecord, error) {
			return findDetailByOwner[WarrantyReceipt](ctx, businessId, "asset_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND asset_id = ?", businessId, ownerId).
				Delete(&WarrantyReceipt{}).Error
		},
	}
}

type UpdateWarrantyReceiptInput struct {
	Provider      string     `json:"provider"`
	ReceiptNumber string     `json:"receipt_number"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	Terms         string     `json:"terms"`
}

func UpdateWarrantyReceipt(ctx context.Context, assetId int, input *UpdateWarrantyReceiptInput) (*WarrantyReceipt, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record WarrantyReceipt
	if err := db.WithContext(ctx).
		Where("business_id = ? AND asset_id = ?", businessId, assetId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"Provider":      input.Provider,
		"ReceiptNumber": input.ReceiptNumber,
		"ExpiryDate":    input.ExpiryDate,
		"Terms":         input.Terms,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
