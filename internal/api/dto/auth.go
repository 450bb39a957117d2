package dto

import "github.com/yuta/recipe-box/internal/api/validation"

type SignUpRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r SignUpRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Email format is invalid"
	}

	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.ValidatePassword(r.Password); !ok {
		errors["password"] = msg
	}

	if r.PasswordConfirmation != r.Password {
		errors["password_confirmation"] = "Password confirmation does not match"
	}

	return errors
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordUpdateRequest struct {
	ResetPasswordToken   string `json:"reset_password_token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r PasswordUpdateRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.ValidatePassword(r.Password); !ok {
		errors["password"] = msg
	}

	if r.PasswordConfirmation != r.Password {
		errors["password_confirmation"] = "Password confirmation does not match"
	}

	return errors
}

type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
