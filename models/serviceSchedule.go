package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

const DetailKeyServiceSchedule = "service_schedule"

// ServiceSchedule is a model-category detail: the maintenance cadence and
// checklist template every asset of the model inherits.
type ServiceSchedule struct {
	ID                int       `gorm:"primary_key" json:"id"`
	BusinessId        string    `gorm:"size:64;not null;index" json:"business_id"`
	ModelId           int       `gorm:"index;not null" json:"model_id"`
	LedgerEntryId     int       `gorm:"index;not null" json:"ledger_entry_id"`
	SequenceNo        int64     `gorm:"not null" json:"sequence_no"`
	IntervalDays      int       `json:"interval_days"`
	ChecklistTemplate string    `gorm:"type:json" json:"checklist_template"`
	CreatedBy         string    `gorm:"size:100" json:"created_by"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s ServiceSchedule) GetId() int               { return s.ID }
func (s ServiceSchedule) GetDescriptorKey() string { return DetailKeyServiceSchedule }

func serviceScheduleDescriptor() DetailDescriptor {
	return DetailDescriptor{
		Key:      DetailKeyServiceSchedule,
		Category: OwnerCategoryModel,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			record := ServiceSchedule{
				BusinessId:        req.BusinessId,
				ModelId:           req.OwnerId,
				LedgerEntryId:     req.LedgerEntryId,
				SequenceNo:        req.SequenceNo,
				ChecklistTemplate: "[]",
				CreatedBy:         req.CreatedBy,
			}
			if err := tx.Create(&record).Error; err != nil {
				return nil, err
			}
			return record, nil
		},
		FindByOwner: func(ctx context.Context, businessId string, ownerId int) (DetailRecord, error) {
			return findDetailByOwner[ServiceSchedule](ctx, businessId, "model_id", ownerId)
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return tx.Where("business_id = ? AND model_id = ?", businessId, ownerId).
				Delete(&ServiceSchedule{}).Error
		},
	}
}

type UpdateServiceScheduleInput struct {
	IntervalDays      int    `json:"interval_days"`
	ChecklistTemplate string `json:"checklist_template"`
}

func UpdateServiceSchedule(ctx context.Context, modelId int, input *UpdateServiceScheduleInput) (*ServiceSchedule, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record ServiceSchedule
	if err := db.WithContext(ctx).
		Where("business_id = ? AND model_id = ?", businessId, modelId).
		First(&record).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"IntervalDays":      input.IntervalDays,
		"ChecklistTemplate": input.ChecklistTemplate,
	}).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
