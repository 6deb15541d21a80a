package database

import (
	"context"
	"errors"
	"time"

	"wishwall/internal/domain"

	"gorm.io/gorm"
)

// ClaimRewardCode hands the oldest unused code to the identity, or "" when the
// identity already won once or no codes remain. The read-mark pair runs inside
// one transaction so two winners cannot claim the same code.
func ClaimRewardCode(ctx context.Context, identity string) (string, error) {
	if DB == nil {
		return "", errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var code string
	err := DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alreadyWon int64
		if err := tx.Model(&domain.RewardCode{}).
			Where("used_by_ip = ? AND is_used = ?", identity, true).
			Count(&alreadyWon).Error; err != nil {
			return err
		}
		if alreadyWon > 0 {
			return nil
		}

		var reward domain.RewardCode
		err := tx.
			Where("is_used = ?", false).
			Order("created_at ASC").
			First(&reward).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&domain.RewardCode{}).
			Where("id = ? AND is_used = ?", reward.ID, false).
			Updates(map[string]any{
				"is_used":    true,
				"used_by_ip": identity,
				"used_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Raced with another claim; treat as no win.
			return nil
		}

		code = reward.Code
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ListRewardCodes returns every code, newest first.
func ListRewardCodes(ctx context.Context) ([]domain.RewardCode, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var codes []domain.RewardCode
	err := DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// CreateRewardCode inserts a new code. Duplicate codes surface the unique
// constraint violation to the caller.
func CreateRewardCode(ctx context.Context, reward *domain.RewardCode) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	return DB.WithContext(ctx).Create(reward).Error
}

// DeleteRewardCode removes a code by ID. Idempotent.
func DeleteRewardCode(ctx context.Context, id uint64) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	return DB.WithContext(ctx).Delete(&domain.RewardCode{}, id).Error
}
