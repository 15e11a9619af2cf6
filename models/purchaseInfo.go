package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DetailKeyPurchaseInfo = "purchase_info"

// PurchaseInfo holds how an asset was acquired. Auto-created as an empty shell
// when the asset is created; filled in later by data entry.
type PurchaseInfo struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index" json:"business_id"`
	AssetId       int             `gorm:"index;not null" json:"asset_id"`
	LedgerEntryId int             `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64           `gorm:"not null" json:"sequence_no"`
	Vendor        string          `gorm:"size:255" json:"vendor"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	PurchaseDate  *time.Time      `json:"purchase_date"`
	InvoiceNumber string          `gorm:"size:100" json:"invoice_number"`
	CreatedBy     string          `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p PurchaseInfo) GetId() int               { return p.ID }
func (p PurchaseInfo) GetDescriptorKey() string { return DetailKeyPurchaseInfo }

func purchaseInfoDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyPurchaseInfo,
		Category: OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := PurchaseInfo{
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
			return findDetailByOwner[PurchaseInfo](ctx, businessId, "asset_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND asset_id = ?", businessId, ownerId).
				Delete(&PurchaseInfo{}).Error
		},
	}
}

type UpdatePurchaseInfoInput struct {
	Vendor        string          `json:"vendor"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  *time.Time      `json:"purchase_date"`
	InvoiceNumber string          `json:"invoice_number"`
}

func UpdatePurchaseInfo(ctx context.Context, assetId int, input *UpdatePurchaseInfoInput) (*PurchaseInfo, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record PurchaseInfo
	if err := db.WithContext(ctx).
		Where("business_id = ? AND asset_id = ?", businessId, assetId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"Vendor":        input.Vendor,
		"PurchasePrice": input.PurchasePrice,
		"PurchaseDate":  input.PurchaseDate,
		"InvoiceNumber": input.InvoiceNumber,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
