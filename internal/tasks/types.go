package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeConfirmationEmail  = "email:confirmation"
	TypePasswordResetEmail = "email:password_reset"
)

// ConfirmationEmailPayload carries the confirmation link token for a
// freshly registered (or resend-requested) account.
type ConfirmationEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func NewConfirmationEmailTask(payload ConfirmationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeConfirmationEmail, data), nil
}

// PasswordResetEmailPayload carries the raw reset token; only its digest is
// in the database.
type PasswordResetEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, data), nil
}
