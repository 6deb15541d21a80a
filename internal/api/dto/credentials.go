package dto

// Credentials This is necessary to prevent any Mass Assignment Vulnerability attack
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
