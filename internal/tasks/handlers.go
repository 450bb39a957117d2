package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hibiken/asynq"
	"github.com/yuta/recipe-box/internal/mailer"
)

type Handler struct {
	mailer  mailer.Mailer
	apiBase string
	logger  *slog.Logger
}

// NewHandler wires the worker-side mail handlers. apiBase is the public
// base URL of the API server the emailed links point at.
func NewHandler(m mailer.Mailer, apiBase string, logger *slog.Logger) *Handler {
	return &Handler{
		mailer:  m,
		apiBase: apiBase,
		logger:  logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeConfirmationEmail, h.HandleConfirmationEmail)
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordResetEmail)
}

func (h *Handler) HandleConfirmationEmail(ctx context.Context, t *asynq.Task) error {
	var payload ConfirmationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	link := fmt.Sprintf("%s/api/v1/auth/confirmation?confirmation_token=%s",
		h.apiBase, url.QueryEscape(payload.Token))

	msg := mailer.Message{
		To:      payload.Email,
		Subject: "Confirm your recipe-box account",
		Body: fmt.Sprintf(
			"Welcome to recipe-box!\n\nPlease confirm your account by visiting the link below:\n\n%s\n\nIf you did not sign up, you can ignore this email.\n",
			link,
		),
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("sending confirmation email", "error", err)
		return err
	}

	h.logger.Info("confirmation email sent", "to", payload.Email)
	return nil
}

func (h *Handler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	link := fmt.Sprintf("%s/api/v1/auth/password/edit?reset_password_token=%s",
		h.apiBase, url.QueryEscape(payload.Token))

	msg := mailer.Message{
		To:      payload.Email,
		Subject: "Reset your recipe-box password",
		Body: fmt.Sprintf(
			"A password reset was requested for this address.\n\nYou can set a new password within the next few hours via the link below:\n\n%s\n\nIf you did not request a reset, no action is needed.\n",
			link,
		),
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("sending password reset email", "error", err)
		return err
	}

	h.logger.Info("password reset email sent", "to", payload.Email)
	return nil
}
