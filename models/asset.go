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

// Asset is a physical unit (one vehicle, one generator). Its type selector is
// derived from its model; the asset schema itself is closed — detail records
// attach through the ledger, never as a collection field here.
type Asset struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"size:64;not null;index" json:"business_id"`
	AssetNumber     string          `gorm:"size:100;not null" json:"asset_number" binding:"required"`
	ModelId         int             `gorm:"index;not null" json:"model_id" binding:"required"`
	Status          AssetStatus     `gorm:"size:20;not null" json:"status"`
	AcquisitionCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"acquisition_cost"`
	Location        string          `gorm:"size:255" json:"location"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAsset struct {
	AssetNumber     string          `json:"asset_number" binding:"required"`
	ModelId         int             `json:"model_id" binding:"required"`
	AcquisitionCost decimal.Decimal `json:"acquisition_cost"`
	Location        string          `json:"location"`
	Notes           string          `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewAsset) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Asset](ctx, businessId, id); err != nil {
			return err
		}
	}
	// asset number
	if err := utils.ValidateUnique[Asset](ctx, businessId, "asset_number", input.AssetNumber, id); err != nil {
		return err
	}
	// model
	if err := utils.ValidateResourceId[AssetModel](ctx, businessId, input.ModelId); err != nil {
		return err
	}
	return nil
}

func (a Asset) ownerRef(assetType string, createdBy string) OwnerRef {
	modelId := a.ModelId
	return OwnerRef{
		Category:   OwnerCategoryAsset,
		Id:         a.ID,
		BusinessId: a.BusinessId,
		AssetType:  assetType,
		ModelId:    &modelId,
		CreatedBy:  createdBy,
	}
}

func CreateAsset(ctx context.Context, input *NewAsset) (*Asset, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	model, err := utils.FetchModel[AssetModel](ctx, businessId, input.ModelId)
	if err != nil {
		return nil, err
	}

	asset := Asset{
		BusinessId:      businessId,
		AssetNumber:     input.AssetNumber,
		ModelId:         input.ModelId,
		Status:          AssetStatusActive,
		AcquisitionCost: input.AcquisitionCost,
		Location:        input.Location,
		Notes:           input.Notes,
	}

	// db action: insert the owner, then materialize its configured details in
	// the same transaction (the onOwnerCreated boundary)
	db := config.GetDB()
	logger := config.GetLogger()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&asset).Error; err != nil {
			return err
		}
		_, err := AttachDetails(tx, logger, asset.ownerRef(model.AssetType, userName))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

func UpdateAsset(ctx context.Context, id int, input *NewAsset) (*Asset, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	asset, err := utils.FetchModel[Asset](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(asset).Updates(map[string]interface{}{
		"AssetNumber":     input.AssetNumber,
		"ModelId":         input.ModelId,
		"AcquisitionCost": input.AcquisitionCost,
		"Location":        input.Location,
		"Notes":           input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func UpdateAssetStatus(ctx context.Context, id int, status AssetStatus) (*Asset, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !status.Valid() {
		return nil, errors.New("invalid asset status")
	}

	asset, err := utils.FetchModel[Asset](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(asset).UpdateColumn("Status", status).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

func GetAsset(ctx context.Context, id int) (*Asset, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Asset](ctx, businessId, id)
}

func GetAssets(ctx context.Context, assetNumber *string, modelId *int) ([]*Asset, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Asset
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if assetNumber != nil && len(*assetNumber) > 0 {
		dbCtx = dbCtx.Where("asset_number LIKE ?", "%"+*assetNumber+"%").Limit(config.SearchLimit)
	}
	if modelId != nil {
		dbCtx = dbCtx.Where("model_id = ?", *modelId)
	}
	if err := dbCtx.Order("asset_number").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
