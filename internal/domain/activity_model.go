package domain

import "time"

const (
	ActivityMessage = "message"
	ActivityVisit   = "visit"
)

// Activity is the unified log of wall messages and page visits. Messages carry
// the author fields; visits leave them empty.
type Activity struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Type string `gorm:"column:activity_type;size:10;not null;index;index:idx_activities_type_time,priority:1" json:"-"`

	Name    string `gorm:"size:100" json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Emoji   string `gorm:"size:10;default:'🎂'" json:"emoji,omitempty"`

	IPAddress string `gorm:"size:45;not null;index" json:"-"`
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `gorm:"size:500" json:"referer,omitempty"`

	Country string `gorm:"size:50" json:"country,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index;index:idx_activities_type_time,priority:2" json:"timestamp"`
}
