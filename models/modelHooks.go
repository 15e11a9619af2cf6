package models

import (
	"fmt"

	"gorm.io/gorm"
)

func (m *AssetModel) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Asset model %s (%s) created.", m.Name, m.AssetType)
	return SaveHistoryCreate(tx, m.ID, m, description)
}

func (a *Asset) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Asset %s created.", a.AssetNumber)
	return SaveHistoryCreate(tx, a.ID, a, description)
}

func (d *Dispatch) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Dispatch %s created for asset #%d.", d.DispatchNumber, d.AssetId)
	return SaveHistoryCreate(tx, d.ID, d, description)
}
