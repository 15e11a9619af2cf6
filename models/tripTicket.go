package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

const DetailKeyTripTicket = "trip_ticket"

// TripTicket is a dispatch-category detail: who drove, when the asset went out
// and came back.
type TripTicket struct {
	ID            int        `gorm:"primary_key" json:"id"`
	BusinessId    string     `gorm:"size:64;not null;index" json:"business_id"`
	DispatchId    int        `gorm:"index;not null" json:"dispatch_id"`
	LedgerEntryId int        `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo    int64      `gorm:"not null" json:"sequence_no"`
	DriverName    string     `gorm:"size:100" json:"driver_name"`
	DepartedAt    *time.Time `json:"departed_at"`
	ReturnedAt    *time.Time `json:"returned_at"`
	CreatedBy     string     `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t TripTicket) GetId() int               { return t.ID }
func (t TripTicket) GetDescriptorKey() string { return DetailKeyTripTicket }

func tripTicketDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyTripTicket,
		Category: OwnerCategoryDispatch,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := TripTicket{
				BusinessId:    req.BusinessId,
				DispatchId:    req.OwnerId,
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
			return findDetailByOwner[TripTicket](ctx, businessId, "dispatch_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND dispatch_id = ?", businessId, ownerId).
				Delete(&TripTicket{}).Error
		},
	}
}

type UpdateTripTicketInput struct {
	DriverName string     `json:"driver_name"`
	DepartedAt *time.Time `json:"departed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}

func UpdateTripTicket(ctx context.Context, dispatchId int, input *UpdateTripTicketInput) (*TripTicket, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record TripTicket
	if err := db.WithContext(ctx).
		Where("business_id = ? AND dispatch_id = ?", businessId, dispatchId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"DriverName": input.DriverName,
		"DepartedAt": input.DepartedAt,
		"ReturnedAt": input.ReturnedAt,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
