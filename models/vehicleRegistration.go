package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

const DetailKeyVehicleRegistration = "vehicle_registration"

type VehicleRegistration struct {
	ID            int        `gorm:"primary_key" json:"id"`
	BusinessId    string     `gorm:"size:64;not null;index" json:"business_id"`
	AssetId       int        `gorm:"index;not null" json:"asset_id"`
	LedgerEntryId int        `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64      `gorm:"not null" json:"sequence_no"`
	PlateNumber   string     `gorm:"size:32" json:"plate_number"`
	Vin           string     `gorm:"size:64" json:"vin"`
	Region        string     `gorm:"size:100" json:"region"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	CreatedBy     string     `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v VehicleRegistration) GetId() int               { return v.ID }
func (v VehicleRegistration) GetDescriptorKey() string { return DetailKeyVehicleRegistration }

func vehicleRegistrationDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyVehicleRegistration,
		Category: OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := VehicleRegistration{
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
			return findDetailByOwner[VehicleRegistration](ctx, businessId, "asset_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND asset_id = ?", businessId, ownerId).
				Delete(&VehicleRegistration{}).Error
		},
	}
}

type UpdateVehicleRegistrationInput struct {
	PlateNumber string     `json:"plate_number"`
	Vin         string     `json:"vin"`
	Region      string     `json:"region"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

func UpdateVehicleRegistration(ctx context.Context, assetId int, input *UpdateVehicleRegistrationInput) (*VehicleRegistration, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record VehicleRegistration
	if err := db.WithContext(ctx).
		Where("business_id = ? AND asset_id = ?", businessId, assetId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"PlateNumber": input.PlateNumber,
		"Vin":         input.Vin,
		"Region":      input.Region,
		"ExpiryDate":  input.ExpiryDate,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
