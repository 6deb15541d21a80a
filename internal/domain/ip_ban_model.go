package domain

import "time"

// PermanentBanSentinel is stored as expires_at for permanent bans so the
// "active" predicate stays a single comparison.
var PermanentBanSentinel = time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

// IPBan is the durable record of a ban. One row per identity; repeat bans
// update the row instead of inserting a second one.
type IPBan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"`

	IPAddress string `gorm:"size:45;uniqueIndex;not null" json:"ip_address"`
	BanReason string `gorm:"size:200;not null;default:'Rate limit exceeded'" json:"ban_reason"`
	BanCount  int    `gorm:"not null;default:1" json:"ban_count"`

	BannedAt    time.Time `gorm:"not null" json:"banned_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	IsPermanent bool      `gorm:"not null;default:false;index" json:"is_permanent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Active reports whether the ban still applies at the given instant.
func (b IPBan) Active(now time.Time) bool {
	return b.IsPermanent || b.ExpiresAt.After(now)
}
