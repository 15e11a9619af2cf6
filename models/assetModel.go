package models

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"gorm.io/gorm"
)

// AssetModel is the template an asset is built from ("Toyota Corolla"). It is
// itself an owner: model-category detail records (service schedules, checklist
// templates) attach to it through the same ledger mechanism as assets.
type AssetModel struct {
	ID                  int       `gorm:"primary_key" json:"id"`
	BusinessId          string    `gorm:"size:64;not null;index" json:"business_id"`
	Name                string    `gorm:"size:100;not null" json:"name" binding:"required"`
	AssetType           string    `gorm:"size:100;not null" json:"asset_type" binding:"required"`
	Maker               string    `gorm:"size:100" json:"maker"`
	ManufactureYear     int       `json:"manufacture_year"`
	ServiceIntervalDays int       `json:"service_interval_days"`
	IsActive            *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAssetModel struct {
	Name                string `json:"name" binding:"required"`
	AssetType           string `json:"asset_type" binding:"required"`
	Maker               string `json:"maker"`
	ManufactureYear     int    `json:"manufacture_year"`
	ServiceIntervalDays int    `json:"service_interval_days"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewAssetModel) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[AssetModel](ctx, businessId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[AssetModel](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func (m AssetModel) ownerRef(createdBy string) OwnerRef {
	return OwnerRef{
		Category:   OwnerCategoryModel,
		Id:         m.ID,
		BusinessId: m.BusinessId,
		AssetType:  m.AssetType,
		CreatedBy:  createdBy,
	}
}

func CreateAssetModel(ctx context.Context, input *NewAssetModel) (*AssetModel, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	model := AssetModel{
		BusinessId:          businessId,
		Name:                input.Name,
		AssetType:           input.AssetType,
		Maker:               input.Maker,
		ManufactureYear:     input.ManufactureYear,
		ServiceIntervalDays: input.ServiceIntervalDays,
		IsActive:            utils.NewTrue(),
	}

	// db action: the owner row and its auto-created details share one
	// transaction, so a failed create leaves nothing behind
	db := config.GetDB()
	logger := config.GetLogger()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		_, err := AttachDetails(tx, logger, model.ownerRef(userName))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &model, nil
}

func UpdateAssetModel(ctx context.Context, id int, input *NewAssetModel) (*AssetModel, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	model, err := utils.FetchModel[AssetModel](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(model).Updates(map[string]interface{}{
		"Name":                input.Name,
		"AssetType":           input.AssetType,
		"Maker":               input.Maker,
		"ManufactureYear":     input.ManufactureYear,
		"ServiceIntervalDays": input.ServiceIntervalDays,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[AssetModel](id); err != nil {
		return nil, err
	}
	return model, nil
}

// GetAssetModel reads through the per-instance redis cache. Cache keys are not
// tenant scoped, so a hit only counts when the business matches.
func GetAssetModel(ctx context.Context, id int) (*AssetModel, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	cached, err := utils.RetrieveRedis[AssetModel](id)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.BusinessId == businessId {
		return cached, nil
	}

	model, err := utils.FetchModel[AssetModel](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[AssetModel](model, id); err != nil {
		return nil, err
	}
	return model, nil
}

func GetAssetModels(ctx context.Context, name *string) ([]*AssetModel, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*AssetModel
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%").Limit(config.SearchLimit)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveAssetModel(ctx context.Context, id int, isActive bool) (*AssetModel, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	model, err := utils.FetchModel[AssetModel](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(model).UpdateColumn("IsActive", isActive).Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[AssetModel](id); err != nil {
		return nil, err
	}
	return model, nil
}
