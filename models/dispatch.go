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

// Dispatch is a work order sending one asset out. Its selectors are derived
// transitively: dispatch -> asset -> model -> asset type.
type Dispatch struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;not null;index" json:"business_id"`
	DispatchNumber string          `gorm:"size:100;not null" json:"dispatch_number" binding:"required"`
	AssetId        int             `gorm:"index;not null" json:"asset_id" binding:"required"`
	Destination    string          `gorm:"size:255" json:"destination"`
	OdometerOut    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"odometer_out"`
	OdometerIn     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"odometer_in"`
	Status         DispatchStatus  `gorm:"size:20;not null" json:"status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	DispatchedAt   time.Time       `json:"dispatched_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDispatch struct {
	DispatchNumber string          `json:"dispatch_number" binding:"required"`
	AssetId        int             `json:"asset_id" binding:"required"`
	Destination    string          `json:"destination"`
	OdometerOut    decimal.Decimal `json:"odometer_out"`
	Notes          string          `json:"notes"`
}

// validate input for create.

func (input *NewDispatch) validate(ctx context.Context, businessId string) error {
	// dispatch number
	if err := utils.ValidateUnique[Dispatch](ctx, businessId, "dispatch_number", input.DispatchNumber, 0); err != nil {
		return err
	}
	// asset
	if err := utils.ValidateResourceId[Asset](ctx, businessId, input.AssetId); err != nil {
		return err
	}
	return nil
}

func (d Dispatch) ownerRef(assetType string, modelId int, createdBy string) OwnerRef {
	return OwnerRef{
		Category:   OwnerCategoryDispatch,
		Id:         d.ID,
		BusinessId: d.BusinessId,
		AssetType:  assetType,
		ModelId:    &modelId,
		CreatedBy:  createdBy,
	}
}

func CreateDispatch(ctx context.Context, input *NewDispatch) (*Dispatch, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	asset, err := utils.FetchModel[Asset](ctx, businessId, input.AssetId)
	if err != nil {
		return nil, err
	}
	model, err := utils.FetchModel[AssetModel](ctx, businessId, asset.ModelId)
	if err != nil {
		return nil, err
	}

	dispatch := Dispatch{
		BusinessId:     businessId,
		DispatchNumber: input.DispatchNumber,
		AssetId:        input.AssetId,
		Destination:    input.Destination,
		OdometerOut:    input.OdometerOut,
		Status:         DispatchStatusOpen,
		Notes:          input.Notes,
		DispatchedAt:   time.Now(),
	}

	// db action: owner insert + auto-created details in one transaction; the
	// dispatched asset is flagged in the same boundary
	db := config.GetDB()
	logger := config.GetLogger()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dispatch).Error; err != nil {
			return err
		}
		if err := tx.Model(&Asset{}).Where("id = ?", asset.ID).
			UpdateColumn("status", AssetStatusDispatched).Error; err != nil {
			return err
		}
		_, err := AttachDetails(tx, logger, dispatch.ownerRef(model.AssetType, asset.ModelId, userName))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dispatch, nil
}

func CloseDispatch(ctx context.Context, id int, odometerIn decimal.Decimal) (*Dispatch, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dispatch, err := utils.FetchModel[Dispatch](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if dispatch.Status != DispatchStatusOpen {
		return nil, errors.New("dispatch is not open")
	}
	if odometerIn.LessThan(dispatch.OdometerOut) {
		return nil, errors.New("odometer in cannot be less than odometer out")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(dispatch).Updates(map[string]interface{}{
			"Status":     DispatchStatusClosed,
			"OdometerIn": odometerIn,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Asset{}).Where("id = ?", dispatch.AssetId).
			UpdateColumn("status", AssetStatusActive).Error
	})
	if err != nil {
		return nil, err
	}
	return dispatch, nil
}

func GetDispatch(ctx context.Context, id int) (*Dispatch, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Dispatch](ctx, businessId, id)
}

func GetDispatches(ctx context.Context, assetId *int, status *DispatchStatus) ([]*Dispatch, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Dispatch
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if assetId != nil {
		dbCtx = dbCtx.Where("asset_id = ?", *assetId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if err := dbCtx.Order("dispatched_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
