package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/models"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AttachmentSweeper periodically re-runs the attachment orchestrator for
// recently created owners, so that attachment-rule changes (and the odd
// descriptor that failed during owner creation) materialize without anyone
// calling the explicit attach endpoint. It relies entirely on the
// orchestrator's idempotency: an owner that already has everything is a no-op.
type AttachmentSweeper struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	SweeperID string

	Interval time.Duration
	Lookback time.Duration
	LockTTL  time.Duration
}

func NewAttachmentSweeper(db *gorm.DB, logger *logrus.Logger, interval time.Duration) *AttachmentSweeper {
	return &AttachmentSweeper{
		DB:        db,
		Logger:    logger,
		SweeperID: uuid.NewString(),
		Interval:  interval,
		Lookback:  24 * time.Hour,
		LockTTL:   60 * time.Second,
	}
}

func (s *AttachmentSweeper) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

func (s *AttachmentSweeper) sweepOnce(ctx context.Context) {
	if s.DB == nil {
		return
	}

	// one sweeper across all instances at a time
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:attachment-sweep", s.LockTTL, nil)
		if err == redislock.ErrNotObtained {
			return
		}
		if err != nil {
			config.LogError(s.Logger, "workflow", "sweepOnce", "obtain lock", s.SweeperID, err)
			return
		}
		defer lock.Release(ctx)
	}

	var businessIds []string
	if err := s.DB.WithContext(ctx).Model(&models.AttachmentRule{}).
		Distinct("business_id").Pluck("business_id", &businessIds).Error; err != nil {
		config.LogError(s.Logger, "workflow", "sweepOnce", "list businesses", nil, err)
		return
	}

	for _, businessId := range businessIds {
		bizCtx := utils.SetBusinessIdInContext(ctx, businessId)
		bizCtx = utils.SetUserNameInContext(bizCtx, "attachment-sweeper")
		s.sweepBusiness(bizCtx, businessId)
	}
}

func (s *AttachmentSweeper) sweepBusiness(ctx context.Context, businessId string) {
	since := time.Now().Add(-s.Lookback)

	for _, target := range []struct {
		category models.OwnerCategory
		model    interface{}
	}{
		{models.OwnerCategoryModel, &models.AssetModel{}},
		{models.OwnerCategoryAsset, &models.Asset{}},
		{models.OwnerCategoryDispatch, &models.Dispatch{}},
	} {
		var ownerIds []int
		err := s.DB.WithContext(ctx).Model(target.model).
			Where("business_id = ? AND created_at >= ?", businessId, since).
			Pluck("id", &ownerIds).Error
		if err != nil {
			config.LogError(s.Logger, "workflow", "sweepBusiness", string(target.category), businessId, err)
			continue
		}
		for _, ownerId := range ownerIds {
			if _, err := models.AttachDetailsForOwner(ctx, target.category, ownerId); err != nil {
				// a failing owner must not stop the rest of the sweep
				if errors.Is(err, utils.ErrorRecordNotFound) {
					continue
				}
				config.LogError(s.Logger, "workflow", "sweepBusiness",
					string(target.category), ownerId, err)
			}
		}
	}
}
