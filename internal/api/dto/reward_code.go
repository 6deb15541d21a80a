package dto

type NewRewardCode struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
}
