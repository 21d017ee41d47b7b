// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the signup form data
type SignupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignupResponse represents the response after successful signup
type SignupResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    AuthUserDTO `json:"user"`
}

// LoginRequest represents the login form data
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"` // username or email
	Password   string `json:"password" validate:"required"`
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    AuthUserDTO `json:"user"`
}

// AuthUserDTO represents user data for authentication responses
type AuthUserDTO struct {
	ID              uint   `json:"id"`
	UUID            string `json:"uuid"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Credits         int64  `json:"credits"`
	IsEmailVerified *bool  `json:"is_email_verified"`
	IsActive        *bool  `json:"is_active"`
	CreatedAt       string `json:"created_at"`
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"` // Field-specific validation errors
}
