package dto

import "time"

type VisitorInfo struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referer   string    `json:"referer"`
	Timestamp time.Time `json:"timestamp"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Location  string    `json:"location"`
}
