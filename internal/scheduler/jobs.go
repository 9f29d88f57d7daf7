package scheduler

import (
	"context"
	"time"

	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurgeSessionsJob deletes sessions that expired or were revoked longer than
// the retention window ago.
func (s *Scheduler) PurgeSessionsJob(ctx context.Context, run *jobRun) error {
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)

	for {
		var ids []int64
		err := s.db.WithContext(ctx).
			Model(&authdomain.Session{}).
			Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
			Order("id ASC").
			Limit(s.cfg.BatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&authdomain.Session{}).Error; err != nil {
			return err
		}
		run.AddProcessed(len(ids))

		if len(ids) < s.cfg.BatchSize {
			return nil
		}
	}
}

// PurgeEmptyCartsJob removes carts without items that have not been touched
// within the retention window. Each cart is rechecked under its writer lock.
func (s *Scheduler) PurgeEmptyCartsJob(ctx context.Context, run *jobRun) error {
	cutoff := s.clock.Now().Add(-s.cfg.CartRetention)

	var carts []cartdomain.Cart
	err := s.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
		Order("id ASC").
		Limit(s.cfg.BatchSize).
		Find(&carts).Error
	if err != nil {
		return err
	}

	for _, cart := range carts {
		deleted, err := s.purgeCart(ctx, cart, cutoff)
		if err != nil {
			run.IncError()
			s.log.Warn("failed to purge cart",
				zap.Int64("cart_id", cart.ID),
				zap.Int64("user_id", cart.UserID),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if deleted {
			run.AddProcessed(1)
		}
	}
	return nil
}

func (s *Scheduler) purgeCart(ctx context.Context, cart cartdomain.Cart, cutoff time.Time) (bool, error) {
	release, err := s.locker.Acquire(ctx, cartdomain.LockKey(cart.UserID))
	if err != nil {
		return false, err
	}
	defer release()

	var deleted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items int64
		if err := tx.Model(&cartdomain.Item{}).Where("cart_id = ?", cart.ID).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return nil
		}
		res := tx.Where("id = ? AND updated_at < ?", cart.ID, cutoff).Delete(&cartdomain.Cart{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
