package models

import "errors"

// OwnerCategory selects which detail ledger, descriptor registry and sequence
// counter apply to an owner. It is a config-time discriminator, not a stored
// entity of its own.
type OwnerCategory string

const (
	OwnerCategoryAsset    OwnerCategory = "Asset"
	OwnerCategoryModel    OwnerCategory = "Model"
	OwnerCategoryDispatch OwnerCategory = "Dispatch"
)

func ParseOwnerCategory(s string) (OwnerCategory, error) {
	switch OwnerCategory(s) {
	case OwnerCategoryAsset, OwnerCategoryModel, OwnerCategoryDispatch:
		return OwnerCategory(s), nil
	}
	return "", errors.New("invalid owner category")
}

type AssetStatus string

const (
	AssetStatusActive      AssetStatus = "Active"
	AssetStatusDispatched  AssetStatus = "Dispatched"
	AssetStatusMaintenance AssetStatus = "Maintenance"
	AssetStatusRetired     AssetStatus = "Retired"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusActive, AssetStatusDispatched, AssetStatusMaintenance, AssetStatusRetired:
		return true
	}
	return false
}

type DispatchStatus string

const (
	DispatchStatusOpen      DispatchStatus = "Open"
	DispatchStatusClosed    DispatchStatus = "Closed"
	DispatchStatusCancelled DispatchStatus = "Cancelled"
)

func (s DispatchStatus) Valid() bool {
	switch s {
	case DispatchStatusOpen, DispatchStatusClosed, DispatchStatusCancelled:
		return true
	}
	return false
}
