package database

import (
	"context"
	"errors"
	"time"

	"wishwall/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindActiveBan returns the ban record for the identity if it is still in
// force, nil if there is none. Expired non-permanent rows are left in place.
func FindActiveBan(ctx context.Context, identity string) (*domain.IPBan, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var ban domain.IPBan
	err := DB.WithContext(ctx).
		Where("ip_address = ? AND (is_permanent = ? OR expires_at > ?)", identity, true, time.Now()).
		First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// UpsertBan records a ban for the identity. A single conflict-handling insert
// keeps the ip_address unique constraint authoritative: concurrent escalations
// for one identity can at worst double-increment ban_count, they can never
// produce two rows.
func UpsertBan(ctx context.Context, identity, reason string, expiresAt time.Time, permanent bool) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	now := time.Now()
	if permanent {
		expiresAt = domain.PermanentBanSentinel
	}

	ban := domain.IPBan{
		IPAddress:   identity,
		BanReason:   reason,
		BanCount:    1,
		BannedAt:    now,
		ExpiresAt:   expiresAt,
		IsPermanent: permanent,
	}

	return DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"ban_reason":   reason,
			"ban_count":    gorm.Expr("ip_bans.ban_count + 1"),
			"banned_at":    now,
			"expires_at":   expiresAt,
			"is_permanent": permanent,
			"updated_at":   now,
		}),
	}).Create(&ban).Error
}

// DeleteBan removes the ban row for the identity. Unbanning an identity that
// was never banned is a no-op, not an error.
func DeleteBan(ctx context.Context, identity string) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	return DB.WithContext(ctx).
		Where("ip_address = ?", identity).
		Delete(&domain.IPBan{}).Error
}

// ListActiveBans returns all bans still in force, newest first.
func ListActiveBans(ctx context.Context) ([]domain.IPBan, error) {
	if DB == nil {
		return nil, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var bans []domain.IPBan
	err := DB.WithContext(ctx).
		Where("is_permanent = ? OR expires_at > ?", true, time.Now()).
		Order("banned_at DESC").
		Find(&bans).Error
	if err != nil {
		return nil, err
	}
	return bans, nil
}

func withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, queryTimeout)
}
