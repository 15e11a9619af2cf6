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

const DetailKeyMeterLog = "meter_log"

// MeterLog tracks the asset's usage meter (odometer, engine hours).
type MeterLog struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index" json:"business_id"`
	AssetId       int             `gorm:"index;not null" json:"asset_id"`
	LedgerEntryId int             `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64           `gorm:"not null" json:"sequence_no"`
	Reading       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reading"`
	Unit          string          `gorm:"size:20" json:"unit"`
	ReadAt        *time.Time      `json:"read_at"`
	CreatedBy     string          `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m MeterLog) GetId() int               { return m.ID }
func (m MeterLog) GetDescriptorKey() string { return DetailKeyMeterLog }

func meterLogDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyMeterLog,
		Category: OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := MeterLog{
				BusinessId:    req.BusinessId,
				AssetId:       req.OwnerId,
				LedgerEntryId: req.LedgerEntryId,
				SequenceNo:    req.SequenceNo,
				Unit:          "km",
				CreatedBy:     req.CreatedBy,
			}
			if err := tx.Create(&record).Error; err != nil {
				return nil, err
			}
			return record, nil
		},
		FindByOwner: func(ctx context.Context, businessId string, ownerId int) (DetailRecord, error) {
			return findDetailByOwner[MeterLog](ctx, businessId, "asset_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND asset_id = ?", businessId, ownerId).
				Delete(&MeterLog{}).Error
		},
	}
}

type UpdateMeterLogInput struct {
	Reading decimal.Decimal `json:"reading"`
	Unit    string          `json:"unit"`
	ReadAt  *time.Time      `json:"read_at"`
}

func UpdateMeterLog(ctx context.Context, assetId int, input *UpdateMeterLogInput) (*MeterLog, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record MeterLog
	if err := db.WithContext(ctx).
		Where("business_id = ? AND asset_id = ?", businessId, assetId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	// a meter only moves forward
	if input.Reading.LessThan(record.Reading) {
		return nil, errors.New("meter reading cannot decrease")
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"Reading": input.Reading,
		"Unit":    input.Unit,
		"ReadAt":  input.ReadAt,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
