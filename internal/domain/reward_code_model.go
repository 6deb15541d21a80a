package domain

import "time"

// RewardCode is a one-time redemption code handed out by the message-post
// draw. A code is claimed at most once; an identity wins at most once ever.
type RewardCode struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Code        string   `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string   `gorm:"size:200" json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`

	IsUsed   bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedByIP string     `gorm:"size:45" json:"used_by_ip,omitempty"`
	UsedAt   *time.Time `json:"used_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
