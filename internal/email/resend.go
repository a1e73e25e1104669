package email

import (
	"context"

	"github.com/resend/resend-go/v2"
)

// ResendProvider отправляет письма через Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider создаёт провайдер с API-ключом Resend.
func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Send отправляет письмо. Текст ошибки Resend возвращается без обёртки:
// он сохраняется в статусе напоминания как есть.
func (p *ResendProvider) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}
