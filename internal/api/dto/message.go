package dto

import "time"

type NewMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Emoji   string `json:"emoji"`
}

type MessageInfo struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageCreated struct {
	Success    bool   `json:"success"`
	ID         uint64 `json:"id"`
	Message    string `json:"message"`
	RewardCode string `json:"reward_code,omitempty"`
}
