package tasks

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/pkg/queue"
)

// Enqueuer pushes mail tasks onto the mail queue. It is the MailEnqueuer
// the account lifecycle service writes to.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueConfirmationEmail(ctx context.Context, email, token string) error {
	task, err := NewConfirmationEmailTask(ConfirmationEmailPayload{Email: email, Token: token})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(queue.QueueMail))
	return err
}

func (e *Enqueuer) EnqueuePasswordResetEmail(ctx context.Context, email, token string) error {
	task, err := NewPasswordResetEmailTask(PasswordResetEmailPayload{Email: email, Token: token})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(queue.QueueMail))
	return err
}

var _ auth.MailEnqueuer = (*Enqueuer)(nil)
