package dto

import "time"

type BanRequest struct {
	IPAddress       string `json:"ip_address"`
	Reason          string `json:"reason"`
	DurationSeconds int    `json:"duration_seconds"`
	IsPermanent     bool   `json:"is_permanent"`
}

type BannedIPInfo struct {
	IPAddress     string    `json:"ip_address"`
	BanReason     string    `json:"ban_reason"`
	BanCount      int       `json:"ban_count"`
	BannedAt      time.Time `json:"banned_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsPermanent   bool      `json:"is_permanent"`
	RemainingTime string    `json:"remaining_time"`
}

type RequestLogPage struct {
	Logs       []RequestLogInfo `json:"logs"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int64            `json:"total_pages"`
}

type RequestLogInfo struct {
	IPAddress    string    `json:"ip_address"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	UserAgent    string    `json:"user_agent"`
	StatusCode   int       `json:"status_code"`
	ResponseTime float64   `json:"response_time"`
	CreatedAt    time.Time `json:"created_at"`
}
