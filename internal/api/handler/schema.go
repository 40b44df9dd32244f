package handler

import "github.com/thegoodfork/accounts/internal/core/domain"

type registerRequest struct {
	Username  string `json:"username"  validate:"max=64"`
	Email     string `json:"email"     validate:"max=254"`
	Password  string `json:"password"  validate:"max=1024"`
	PassCheck string `json:"passCheck" validate:"max=1024"`
}

type loginRequest struct {
	Login    string `json:"login"    validate:"max=254"`
	Password string `json:"password" validate:"max=1024"`
}

type forgotRequest struct {
	Forgot string `json:"forgot" validate:"max=254"`
}

type resetRequest struct {
	ResetToken string `json:"-" param:"resetToken" validate:"max=128"`
	Password   string `json:"password" validate:"max=1024"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

type userResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// errorResponse documents the envelope rendered by the central error handler.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
}
