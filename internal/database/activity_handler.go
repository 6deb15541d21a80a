package database

import (
	"context"
	"errors"
	"time"

	"wishwall/internal/domain"

	"gorm.io/gorm"
)

const visitorListLimit = 50

// CreateActivity inserts a message or visit row and returns its durable ID.
func CreateActivity(ctx context.Context, activity *domain.Activity) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	return DB.WithContext(ctx).Create(activity).Error
}

// ListMessages returns all wall messages, newest first.
func ListMessages(ctx context.Context) ([]domain.Activity, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var messages []domain.Activity
	err := DB.WithContext(ctx).
		Where("activity_type = ?", domain.ActivityMessage).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteMessage removes a message by its durable row ID. The ID comes straight
// from the list endpoint; ordinal positions are never re-derived.
func DeleteMessage(ctx context.Context, id uint64) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	result := DB.WithContext(ctx).
		Where("id = ? AND activity_type = ?", id, domain.ActivityMessage).
		Delete(&domain.Activity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListVisitors returns the most recent visit rows.
func ListVisitors(ctx context.Context) ([]domain.Activity, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var visits []domain.Activity
	err := DB.WithContext(ctx).
		Where("activity_type = ?", domain.ActivityVisit).
		Order("created_at DESC").
		Limit(visitorListLimit).
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

type WallStats struct {
	TotalMessages int64 `json:"totalMessages"`
	TotalVisitors int64 `json:"totalVisitors"`
	TodayMessages int64 `json:"todayMessages"`
	TodayVisitors int64 `json:"todayVisitors"`
	UniqueAuthors int64 `json:"uniqueMessagers"`
}

// GetWallStats aggregates the public counters shown on the wall page.
func GetWallStats(ctx context.Context, now time.Time) (WallStats, error) {
	var stats WallStats
	if DB == nil {
		return stats, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	db := DB.WithContext(ctx)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := db.Model(&domain.Activity{}).
		Where("activity_type = ?", domain.ActivityMessage).
		Count(&stats.TotalMessages).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&domain.Activity{}).
		Where("activity_type = ?", domain.ActivityVisit).
		Distinct("ip_address").
		Count(&stats.TotalVisitors).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&domain.Activity{}).
		Where("activity_type = ? AND created_at >= ?", domain.ActivityMessage, dayStart).
		Count(&stats.TodayMessages).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&domain.Activity{}).
		Where("activity_type = ? AND created_at >= ?", domain.ActivityVisit, dayStart).
		Distinct("ip_address").
		Count(&stats.TodayVisitors).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&domain.Activity{}).
		Where("activity_type = ?", domain.ActivityMessage).
		Distinct("name").
		Count(&stats.UniqueAuthors).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
