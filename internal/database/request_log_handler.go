package database

import (
	"context"
	"errors"
	"time"

	"wishwall/internal/domain"
)

const (
	maxLogPageSize     = 100
	defaultLogPageSize = 50
)

// AppendRequestLog inserts one audit row. Write-only; the gate treats failures
// as fail-silent.
func AppendRequestLog(ctx context.Context, entry domain.RequestLog) error {
	if DB == nil {
		return errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	return DB.WithContext(ctx).Create(&entry).Error
}

// CountRequestsSince counts audit rows for the identity at or after the given
// instant. Drives the escalation decision.
func CountRequestsSince(ctx context.Context, identity string, since time.Time) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var count int64
	err := DB.WithContext(ctx).Model(&domain.RequestLog{}).
		Where("ip_address = ? AND created_at >= ?", identity, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListRequestLogs pages through the audit trail, newest first. limit is
// clamped to 100; page is 1-based.
func ListRequestLogs(ctx context.Context, page, limit int, identity string) ([]domain.RequestLog, int64, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialised")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLogPageSize
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	query := DB.WithContext(ctx).Model(&domain.RequestLog{})
	if identity != "" {
		query = query.Where("ip_address = ?", identity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []domain.RequestLog
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

type TopIdentity struct {
	IPAddress    string `gorm:"column:ip_address" json:"ip_address"`
	RequestCount int64  `gorm:"column:request_count" json:"request_count"`
}

type SecurityCounters struct {
	ActiveBans    int64         `json:"active_bans"`
	TodayBans     int64         `json:"today_bans"`
	TodayRequests int64         `json:"today_requests"`
	TodayBlocked  int64         `json:"today_blocked"`
	TopIdentities []TopIdentity `json:"top_ips"`
}

// GetSecurityCounters aggregates today's gate activity for the admin surface.
func GetSecurityCounters(ctx context.Context, now time.Time) (SecurityCounters, error) {
	var counters SecurityCounters
	if DB == nil {
		return counters, errors.New("database not initialised")
	}

	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	db := DB.WithContext(ctx)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := db.Model(&domain.IPBan{}).
		Where("is_permanent = ? OR expires_at > ?", true, now).
		Count(&counters.ActiveBans).Error; err != nil {
		return counters, err
	}

	if err := db.Model(&domain.IPBan{}).
		Where("banned_at >= ?", dayStart).
		Count(&counters.TodayBans).Error; err != nil {
		return counters, err
	}

	if err := db.Model(&domain.RequestLog{}).
		Where("created_at >= ?", dayStart).
		Count(&counters.TodayRequests).Error; err != nil {
		return counters, err
	}

	if err := db.Model(&domain.RequestLog{}).
		Where("created_at >= ? AND status_code IN ?", dayStart, []int{403, 429}).
		Count(&counters.TodayBlocked).Error; err != nil {
		return counters, err
	}

	err := db.Model(&domain.RequestLog{}).
		Select("ip_address, COUNT(*) AS request_count").
		Where("created_at >= ?", dayStart).
		Group("ip_address").
		Order("request_count DESC").
		Limit(10).
		Scan(&counters.TopIdentities).Error
	if err != nil {
		return counters, err
	}

	return counters, nil
}
