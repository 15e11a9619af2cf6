package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

const DetailKeySafetyChecklist = "safety_checklist"

// SafetyChecklist items are stored as a JSON document; the engine treats the
// payload as opaque.
type SafetyChecklist struct {
	ID            int        `gorm:"primary_key" json:"id"`
	BusinessId    string     `gorm:"size:64;not null;index" json:"business_id"`
	AssetId       int        `gorm:"index;not null" json:"asset_id"`
	LedgerEntryId int        `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64      `gorm:"not null" json:"sequence_no"`
	Items         string     `gorm:"type:json" json:"items"`
	LastInspected *time.Time `json:"last_inspected"`
	InspectedBy   string     `gorm:"size:100" json:"inspected_by"`
	CreatedBy     string     `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s SafetyChecklist) GetId() int               { return s.ID }
func (s SafetyChecklist) GetDescriptorKey() string { return DetailKeySafetyChecklist }

func safetyChecklistDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeySafetyChecklist,
		Category: OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := SafetyChecklist{
				BusinessId:    req.BusinessId,
				AssetId:       req.OwnerId,
				LedgerEntryId: req.LedgerEntryId,
				SequenceNo:    req.SequenceNo,
				Items:         "[]",
				CreatedBy:     req.CreatedBy,
			}
			if err := tx.Create(&record).Error; err != nil {
				return nil, err
			}
			return record, nil
		},
		FindByOwner: func(ctx context.Context, businessId string, ownerId int) (DetailRecord, error) {
			return findDetailByOwner[SafetyChecklist](ctx, businessId, "asset_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND asset_id = ?", businessId, ownerId).
				Delete(&SafetyChecklist{}).Error
		},
	}
}

type UpdateSafetyChecklistInput struct {
	Items         string     `json:"items"`
	LastInspected *time.Time `json:"last_inspected"`
	InspectedBy   string     `json:"inspected_by"`
}

func UpdateSafetyChecklist(ctx context.Context, assetId int, input *UpdateSafetyChecklistInput) (*SafetyChecklist, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record SafetyChecklist
	if err := db.WithContext(ctx).
		Where("business_id = ? AND asset_id = ?", businessId, assetId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"Items":         input.Items,
		"LastInspected": input.LastInspected,
		"InspectedBy":   input.InspectedBy,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
