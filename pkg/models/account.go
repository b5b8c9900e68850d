package models

import (
	"github.com/nomixtrade/marketsync/pkg/validation"
)

// SignupRequest is the registration payload. Field names follow the
// backend's camelCase contract.
type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

// Validate validates the SignupRequest struct
func (sr SignupRequest) Validate() error {
	if errors := validation.ValidateStruct(sr); len(errors) > 0 {
		return errors
	}
	return nil
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate validates the LoginRequest struct
func (lr LoginRequest) Validate() error {
	if errors := validation.ValidateStruct(lr); len(errors) > 0 {
		return errors
	}
	return nil
}

// LoginResult carries the identity fields a successful login returns.
// Both fields are established together; see session.Context.
type LoginResult struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"user"`
}
