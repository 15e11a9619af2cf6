package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
)

// AttachmentRule declares that a descriptor key applies to owners of a given
// asset type, optionally narrowed to one model. Configuration data: written by
// administrators, rarely mutated, never deleted by business operations.
type AttachmentRule struct {
	ID            int           `gorm:"primary_key" json:"id"`
	BusinessId    string        `gorm:"size:64;not null;index;uniqueIndex:uniq_attachment_rule,priority:1" json:"business_id"`
	OwnerCategory OwnerCategory `gorm:"size:20;not null;uniqueIndex:uniq_attachment_rule,priority:2" json:"owner_category"`
	AssetType     string        `gorm:"size:100;not null;uniqueIndex:uniq_attachment_rule,priority:3" json:"asset_type"`
	ModelId       *int          `gorm:"index" json:"model_id"`
	DescriptorKey string        `gorm:"size:100;not null;uniqueIndex:uniq_attachment_rule,priority:4" json:"descriptor_key"`
	// ModelKey mirrors ModelId with 0 for "no model". MySQL's unique index
	// treats NULLs as distinct, so the natural key is enforced over this
	// sentinel instead.
	ModelKey      int           `gorm:"not null;default:0;uniqueIndex:uniq_attachment_rule,priority:5" json:"-"`
	IsActive      *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAttachmentRule struct {
	OwnerCategory string `json:"owner_category" binding:"required"`
	AssetType     string `json:"asset_type" binding:"required"`
	ModelId       *int   `json:"model_id"`
	DescriptorKey string `json:"descriptor_key" binding:"required"`
}

// validate input for create. The natural key is also enforced by
// uniq_attachment_rule; this pre-check just surfaces the friendly error
// without burning an insert.
func (input *NewAttachmentRule) validate(ctx context.Context, businessId string) error {
	category, err := ParseOwnerCategory(input.OwnerCategory)
	if err != nil {
		return err
	}
	if input.ModelId != nil {
		if err := utils.ValidateResourceId[AssetModel](ctx, businessId, *input.ModelId); err != nil {
			return err
		}
	}

	var cond string
	args := []interface{}{string(category), input.AssetType, input.DescriptorKey}
	if input.ModelId == nil {
		cond = "owner_category = ? AND asset_type = ? AND descriptor_key = ? AND model_id IS NULL"
	} else {
		cond = "owner_category = ? AND asset_type = ? AND descriptor_key = ? AND model_id = ?"
		args = append(args, *input.ModelId)
	}
	count, err := utils.ResourceCountWhere[AttachmentRule](ctx, businessId, cond, args...)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate attachment rule")
	}
	return nil
}

func CreateAttachmentRule(ctx context.Context, input *NewAttachmentRule) (*AttachmentRule, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	rule := AttachmentRule{
		BusinessId:    businessId,
		OwnerCategory: OwnerCategory(input.OwnerCategory),
		AssetType:     input.AssetType,
		ModelId:       input.ModelId,
		DescriptorKey: input.DescriptorKey,
		IsActive:      utils.NewTrue(),
	}
	if input.ModelId != nil {
		rule.ModelKey = *input.ModelId
	}

	// db action; two admins can race past the pre-check, the index settles it
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&rule).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, errors.New("duplicate attachment rule")
		}
		return nil, err
	}

	// rule lists are cached per business; drop the stale copy
	if err := utils.RemoveRedisList[AttachmentRule](businessId); err != nil {
		return nil, err
	}

	return &rule, nil
}

func ToggleActiveAttachmentRule(ctx context.Context, id int, isActive bool) (*AttachmentRule, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	rule, err := utils.FetchModel[AttachmentRule](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(rule).UpdateColumn("IsActive", isActive).Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[AttachmentRule](businessId); err != nil {
		return nil, err
	}

	return rule, nil
}

func GetAttachmentRules(ctx context.Context) ([]*AttachmentRule, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[AttachmentRule](ctx, businessId)
}

// listAttachmentRules reads every rule for the business, redis first, db on
// miss, caching the result.
func listAttachmentRules(ctx context.Context, businessId string) ([]*AttachmentRule, error) {

	rules, err := utils.RetrieveRedisList[AttachmentRule](businessId)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		db := config.GetDB()
		if err := db.WithContext(ctx).Where("business_id = ?", businessId).Find(&rules).Error; err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[AttachmentRule](rules, businessId); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// unionDescriptorKeys resolves the descriptor keys applying to one owner:
// active rules whose asset type matches and whose model selector is either
// absent (type-level baseline) or equal to the owner's model (model-level,
// additive). Set union: a key named by both layers appears once.
//
// Keys come back sorted. Attach passes take row locks key by key, so every
// caller must walk the keys in the same order regardless of whether the rules
// were read from redis or from an unordered db Find.
func unionDescriptorKeys(rules []*AttachmentRule, category OwnerCategory, assetType string, modelId *int) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rule := range rules {
		if rule == nil || rule.OwnerCategory != category || rule.AssetType != assetType {
			continue
		}
		if rule.IsActive == nil || !*rule.IsActive {
			continue
		}
		if rule.ModelId != nil && (modelId == nil || *rule.ModelId != *modelId) {
			continue
		}
		if !seen[rule.DescriptorKey] {
			seen[rule.DescriptorKey] = true
			keys = append(keys, rule.DescriptorKey)
		}
	}
	sort.Strings(keys)
	return keys
}

// AttachmentRuleKeysFor is the rulesFor contract: the set of descriptor keys
// configured for owners of the given category/type/model. An empty result is
// not an error; it simply means zero attachments.
func AttachmentRuleKeysFor(ctx context.Context, businessId string, category OwnerCategory, assetType string, modelId *int) ([]string, error) {
	rules, err := listAttachmentRules(ctx, businessId)
	if err != nil {
		return nil, err
	}
	return unionDescriptorKeys(rules, category, assetType, modelId), nil
}
