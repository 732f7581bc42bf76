package dto

type TokenRequest struct {
	Username string `json:"username" validate:"required" example:"analyst"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
