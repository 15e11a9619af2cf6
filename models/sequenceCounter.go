package models

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"gorm.io/gorm"
)

// ErrSequenceAllocation is fatal to the attach call that hit it: handing out
// an unverified value would break cross-table uniqueness.
var ErrSequenceAllocation = errors.New("detail sequence allocation failed")

// DetailSequenceCounter mints ids that are unique across all concrete detail
// tables of one owner category. Monotonic, never decremented, never reused.
type DetailSequenceCounter struct {
	ID            int           `gorm:"primary_key" json:"id"`
	BusinessId    string        `gorm:"size:64;not null;index:uniq_detail_seq,unique" json:"business_id"`
	OwnerCategory OwnerCategory `gorm:"size:20;not null;index:uniq_detail_seq,unique" json:"owner_category"`
	CurrentValue  int64         `gorm:"not null;default:0" json:"current_value"`
}

var detailSeqMutex sync.Mutex

// NextDetailSequence allocates the next value for (business, category) on the
// caller's transaction. The package mutex serializes callers in this process;
// the MySQL advisory lock plus single-statement increment keeps the allocation
// correct when several instances share the database.
// NOTE: GET_LOCK is connection-scoped, so both statements must run on the same
// *gorm.DB that carries the enclosing transaction.
func NextDetailSequence(tx *gorm.DB, businessId string, category OwnerCategory) (int64, error) {
	detailSeqMutex.Lock()
	defer detailSeqMutex.Unlock()

	lockName := fmt.Sprintf("detailseq:%s:%s", businessId, category)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSequenceAllocation, err)
	}
	if ok != 1 {
		return 0, fmt.Errorf("%w: could not acquire %s", ErrSequenceAllocation, lockName)
	}
	defer func() {
		var released int
		_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error
	}()

	result := tx.Model(&DetailSequenceCounter{}).
		Where("business_id = ? AND owner_category = ?", businessId, category).
		UpdateColumn("current_value", gorm.Expr("current_value + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrSequenceAllocation, result.Error)
	}
	if result.RowsAffected == 0 {
		// first allocation for this (business, category)
		counter := DetailSequenceCounter{
			BusinessId:    businessId,
			OwnerCategory: category,
			CurrentValue:  1,
		}
		if err := tx.Create(&counter).Error; err != nil {
			if !isDuplicateKeyErr(err) {
				return 0, fmt.Errorf("%w: %v", ErrSequenceAllocation, err)
			}
			// another connection created the row between our update and insert
			retry := tx.Model(&DetailSequenceCounter{}).
				Where("business_id = ? AND owner_category = ?", businessId, category).
				UpdateColumn("current_value", gorm.Expr("current_value + 1"))
			if retry.Error != nil {
				return 0, fmt.Errorf("%w: %v", ErrSequenceAllocation, retry.Error)
			}
		} else {
			return counter.CurrentValue, nil
		}
	}

	var value int64
	err := tx.Model(&DetailSequenceCounter{}).
		Where("business_id = ? AND owner_category = ?", businessId, category).
		Select("current_value").Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSequenceAllocation, err)
	}
	return value, nil
}

// ResetDetailSequence rewinds a counter. Test and maintenance use only; never
// call it from request-handling code paths.
func ResetDetailSequence(ctx context.Context, businessId string, category OwnerCategory, startValue int64) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&DetailSequenceCounter{}).
			Where("business_id = ? AND owner_category = ?", businessId, category).
			UpdateColumn("current_value", startValue)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return tx.Create(&DetailSequenceCounter{
				BusinessId:    businessId,
				OwnerCategory: category,
				CurrentValue:  startValue,
			}).Error
		}
		return nil
	})
}
