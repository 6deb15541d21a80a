package domain

import "time"

// RequestLog is the append-only audit trail of every gated request. Rows are
// never mutated; retention is an external concern.
type RequestLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"`

	IPAddress string  `gorm:"size:45;not null;index;index:idx_request_logs_ip_time,priority:1" json:"ip_address"`
	Endpoint  string  `gorm:"size:200;not null;index" json:"endpoint"`
	Method    string  `gorm:"size:10;not null" json:"method"`
	UserAgent string  `json:"user_agent"`
	Status    int     `gorm:"column:status_code" json:"status_code"`
	Duration  float64 `gorm:"column:response_time_ms" json:"response_time_ms"`

	CreatedAt time.Time `gorm:"autoCreateTime;index;index:idx_request_logs_ip_time,priority:2" json:"created_at"`
}
